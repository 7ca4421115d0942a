package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const Clear = "\033[2K\r"

type ProgressBar struct {
	total       int
	current     int
	startTime   time.Time
	description string
	mu          sync.Mutex
	width       int
}

func NewProgressBar(total int, description string) *ProgressBar {
	return &ProgressBar{
		total:       total,
		startTime:   time.Now(),
		description: description,
		width:       40, // 进度条长度
	}
}

// Set moves the bar to done out of total. Out of order updates from
// concurrent workers never move it backwards.
func (pb *ProgressBar) Set(done, total int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if total > 0 {
		pb.total = total
	}
	if done > pb.current {
		pb.current = done
	}
	pb.render()
}

func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	// 确保进度满格
	pb.current = pb.total
	pb.render()
	mu.Lock()
	if interactive {
		fmt.Fprintln(out)
	}
	mu.Unlock()
}

func (pb *ProgressBar) render() {
	percent := 1.0
	if pb.total > 0 {
		percent = float64(pb.current) / float64(pb.total)
	}
	if percent > 1.0 {
		percent = 1.0
	}

	filled := int(float64(pb.width) * percent)
	bar := strings.Repeat("=", filled)
	if filled < pb.width {
		bar += ">" + strings.Repeat(".", pb.width-filled-1)
	}

	// 计算 ETA
	elapsed := time.Since(pb.startTime)
	remaining := time.Duration(0)
	if rate := float64(pb.current) / elapsed.Seconds(); rate > 0 {
		remaining = time.Duration(float64(pb.total-pb.current)/rate) * time.Second
	}
	etaStr := fmt.Sprintf("%02dm%02ds", int(remaining.Minutes()), int(remaining.Seconds())%60)

	barColor := Cyan
	if percent >= 1.0 {
		barColor = Green
	}

	mu.Lock()
	defer mu.Unlock()
	if !interactive {
		return
	}
	fmt.Fprintf(out, "%s%s %s[%s]%s %.0f%% | %d/%d | ETA: %s",
		Clear,
		pb.description,
		barColor, bar, Reset,
		percent*100,
		pb.current, pb.total,
		etaStr,
	)
}
