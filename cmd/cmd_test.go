package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	listingPage = `<html><body><table><tr><td headers="t1sa3"><a href="ps32?kraj=2">X</a></td></tr></table></body></html>`
	regionPage  = `<html><body><table>
<tr><td headers="t1sa1 t1sb1">529303</td><td headers="t1sa1 t1sb2">Benešov</td><td headers="t1sa2"><a href="ps311?obec=a">X</a></td></tr>
<tr><td headers="t1sa1 t1sb1">532568</td><td headers="t1sa1 t1sb2">Bernartice</td><td headers="t1sa2"><a href="ps311?obec=b">X</a></td></tr>
</table></body></html>`
	precinctIndex = `<html><body><table><tr><td headers="s1"><a href="ps311?okrsek=1">1</a></td><td headers="s1"><a href="ps311?okrsek=2">2</a></td></tr></table></body></html>`
)

func resultPage(registered, envelopes, valid, votes string) string {
	return fmt.Sprintf(`<html><body>
<table><tr><td headers="sa2">%s</td><td headers="sa3">%s</td><td headers="sa6">%s</td></tr></table>
<table><tr><td headers="t1sa1 t1sb2">Strana zelených; Praha</td><td headers="t1sa2 t1sb3">%s</td></tr></table>
</body></html>`, registered, envelopes, valid, votes)
}

func newSite(t *testing.T, missing ...string) *httptest.Server {
	pages := map[string]string{
		"/ps3":            listingPage,
		"/ps32?kraj=2":    regionPage,
		"/ps311?obec=a":   resultPage("1\u00a0205", "790", "786", "112"),
		"/ps311?obec=b":   precinctIndex,
		"/ps311?okrsek=1": resultPage("1\u00a0000", "700", "697", "100"),
		"/ps311?okrsek=2": resultPage("205", "90", "89", "12"),
	}
	for _, uri := range missing {
		delete(pages, uri)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd := NewRootCmd(&out, &out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	srv := newSite(t)
	outputPath := filepath.Join(t.TempDir(), "benesov.csv")

	out, err := execute(srv.URL+"/ps32?kraj=2", outputPath,
		"--listing", srv.URL+"/ps3", "--log-level", "error", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "The script is running.\n")
	assert.Contains(t, out, "I have 2 out of 2 parts ready.\n")
	assert.Contains(t, out, "CSV file is ready.\n")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "code;location;registered;envelopes;valid;\"Strana zelených; Praha\"\n"+
		"529303;Benešov;1205;790;786;112\n"+
		"532568;Bernartice;1205;790;786;112\n", string(data))
}

func TestRunRejected(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()

	tests := []struct {
		name       string
		regionURL  string
		outputPath string
	}{
		{name: "region not listed", regionURL: srv.URL + "/ps32?kraj=9", outputPath: filepath.Join(dir, "out.csv")},
		{name: "not a csv file", regionURL: srv.URL + "/ps32?kraj=2", outputPath: filepath.Join(dir, "out.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(tt.regionURL, tt.outputPath, "--listing", srv.URL+"/ps3", "--log-level", "error")
			require.Error(t, err)
			assert.Contains(t, out, fmt.Sprintf("\nYour web address %s or CSV file name %s is incorrect.\n\n", tt.regionURL, tt.outputPath))
			assert.NotContains(t, out, "The script is running.")
			assert.NoFileExists(t, tt.outputPath)
		})
	}
}

func TestRunCrawlFailureLeavesNoFile(t *testing.T) {
	srv := newSite(t, "/ps311?obec=a", "/ps311?obec=b")
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.csv")
	configPath := filepath.Join(dir, "volby.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logLevel: error\nlistingURL: "+srv.URL+"/ps3\n"), 0o644))

	out, err := execute(srv.URL+"/ps32?kraj=2", outputPath, "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, out, "The script is running.")
	assert.NotContains(t, out, "CSV file is ready.")
	assert.NoFileExists(t, outputPath)
}

func TestArgs(t *testing.T) {
	out, err := execute("only-one-arg")
	require.Error(t, err)
	assert.Contains(t, out, "Usage:")

	_, err = execute("a", "b.csv", "--log-level", "loud")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Git Commit:")
}
