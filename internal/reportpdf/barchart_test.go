package reportpdf

import (
	"bytes"
	"context"
	"image/png"
	"sync"
	"testing"
)

func TestGGBarChartProducesPNG(t *testing.T) {
	c, err := NewGGBarChart(800, 400)
	if err != nil {
		t.Fatalf("NewGGBarChart: %v", err)
	}
	bars := []ChartBar{
		{Value: 72.5, Average: 80, Min: 40, Max: 95},
		{Value: 10, Average: 55.25, Min: 10, Max: 10},
		{Value: 100, Average: 0},
	}
	for _, in := range [][]ChartBar{bars, nil} {
		raw, err := c.Draw(context.Background(), in)
		if err != nil {
			t.Fatalf("Draw(%d bars): %v", len(in), err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 400 {
			t.Fatalf("size: want=800x400 got=%dx%d", b.Dx(), b.Dy())
		}
	}
}

func TestGGBarChartHonorsCancel(t *testing.T) {
	c, err := NewGGBarChart(100, 100)
	if err != nil {
		t.Fatalf("NewGGBarChart: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Draw(ctx, nil); err == nil {
		t.Fatalf("canceled context should fail")
	}
}

func TestGGBarChartConcurrentDraws(t *testing.T) {
	c, err := NewGGBarChart(320, 180)
	if err != nil {
		t.Fatalf("NewGGBarChart: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			_, err := c.Draw(context.Background(), []ChartBar{{Value: v, Average: 50, Min: 10, Max: 90}})
			errs <- err
		}(float64(25 * i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
}
