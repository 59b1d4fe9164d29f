package limiter

import (
	"context"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// 限速器接口，采集器在每次请求前调用Wait
type RateLimiter interface {
	Wait(context.Context) error
	Limit() rate.Limit
}

// 单条限速规则：EventDur时间内最多EventCount个请求，Bucket为令牌桶容量
type Rule struct {
	EventCount int           `yaml:"eventCount"`
	EventDur   time.Duration `yaml:"eventDur"`
	Bucket     int           `yaml:"bucket"`
}

/*
输入若干限速规则，输出一个限速器

没有有效规则时返回nil，调用方据此跳过限速；多条规则组合成多限速器，所有规则同时满足才放行
*/
func New(rules ...Rule) RateLimiter {
	var limiters []RateLimiter
	for _, r := range rules {
		if r.EventCount <= 0 || r.EventDur <= 0 {
			continue
		}
		bucket := r.Bucket
		if bucket <= 0 {
			bucket = 1
		}
		limiters = append(limiters, rate.NewLimiter(Per(r.EventCount, r.EventDur), bucket))
	}
	if len(limiters) == 0 {
		return nil
	}
	return Multi(limiters...)
}

// 按速率从小到大排序，最严格的限速器排在最前面
func Multi(limiters ...RateLimiter) *multiLimiter {
	byLimit := func(i, j int) bool {
		return limiters[i].Limit() < limiters[j].Limit()
	}
	sort.Slice(limiters, byLimit)
	return &multiLimiter{limiters: limiters}
}

type multiLimiter struct {
	limiters []RateLimiter
}

func (l *multiLimiter) Wait(ctx context.Context) error {
	for _, l := range l.limiters {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (l *multiLimiter) Limit() rate.Limit {
	return l.limiters[0].Limit()
}

// 两个令牌之间的时间间隔为duration/eventCount
func Per(eventCount int, duration time.Duration) rate.Limit {
	return rate.Every(duration / time.Duration(eventCount))
}
