// Package pipeline runs fitting jobs through a worker pool and writes a
// preview image plus manifest for each run.
package pipeline

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"avatar-fitter/internal/attach"
	"avatar-fitter/internal/collision"
	"avatar-fitter/internal/engine"
	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/preview"
	"avatar-fitter/internal/region"
	"avatar-fitter/internal/shrinkwrap"
	"avatar-fitter/internal/skeleton"
)

// Config holds shared resources for a pipeline run.
type Config struct {
	OutputDir   string
	PreviewSize int
	Supersample int
	Workers     int

	Fitting             shrinkwrap.Config
	Heuristics          region.Heuristics
	BindRadius          float64
	CollisionSampleRate float64

	Log *zap.Logger
}

// Job describes one avatar + equipment scenario. Each job owns its meshes;
// the pipeline mutates equipment geometry in place.
type Job struct {
	Name      string
	Avatar    *geom.Mesh
	Skeleton  *skeleton.Skeleton
	Equipment *geom.Mesh

	// Operations to run, in fit → bind → attach order.
	Fit    bool
	Bind   bool
	Attach bool

	Slot     attach.Slot
	Category attach.Category
	Grip     *mathutil.Vec3

	AvatarHeight float64
}

// Result holds the outcome of one job.
type Result struct {
	Name    string
	Success bool
	Error   string

	FitReport        shrinkwrap.Report
	Collisions       int
	UsedRootFallback bool
	Image            string
}

// Run processes all jobs using a worker pool and reports progress while
// running.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	eng := engine.New(log)

	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					log.Info("pipeline progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("jobs_per_sec", float64(p)/elapsed),
					)
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(ctx, cfg, eng, log, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(ctx context.Context, cfg Config, eng *engine.Engine, log *zap.Logger, job Job) Result {
	res := Result{Name: job.Name}
	fail := func(err error) Result {
		res.Error = err.Error()
		return res
	}

	if job.Skeleton != nil {
		regions, err := region.Detect(job.Avatar, job.Skeleton, cfg.Heuristics)
		if err != nil {
			return fail(err)
		}
		torso := regions[region.Torso]
		log.Debug("regions detected",
			zap.String("job", job.Name),
			zap.Float64("torso_bottom", torso.Min[1]),
			zap.Float64("torso_top", torso.Max[1]),
		)
	}

	if job.Fit {
		report, err := eng.Fit(ctx, job.Name, job.Equipment, job.Avatar, cfg.Fitting)
		res.FitReport = report
		if err != nil {
			return fail(err)
		}
	}

	if job.Bind {
		if err := eng.Bind(job.Name, job.Equipment, job.Skeleton, cfg.BindRadius, true); err != nil {
			return fail(err)
		}
	}

	if job.Attach {
		req := attach.Request{
			Slot:         job.Slot,
			Skeleton:     job.Skeleton,
			Category:     job.Category,
			AvatarHeight: job.AvatarHeight,
			Equipment:    job.Equipment,
		}
		t, fellBack, err := eng.Attach(job.Name, req, job.Grip)
		if err != nil {
			return fail(err)
		}
		res.UsedRootFallback = fellBack
		// Place the equipment for the preview frame.
		job.Equipment.Transform = t.WorldMatrix(job.Skeleton)
	}

	// Contacts are measured at the final placement.
	sampleRate := cfg.CollisionSampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}
	contacts, err := collision.Detect(job.Equipment, job.Avatar, sampleRate)
	if err != nil {
		return fail(err)
	}
	res.Collisions = len(contacts)

	markers := make([]mathutil.Vec3, len(contacts))
	for i, c := range contacts {
		markers[i] = c.Position
	}
	scene := preview.Scene{
		Items: []preview.Item{
			{Mesh: job.Avatar, Color: color.NRGBA{R: 150, G: 150, B: 160, A: 255}},
			{Mesh: job.Equipment, Color: color.NRGBA{R: 90, G: 140, B: 220, A: 255}},
		},
		Markers: markers,
		Camera:  preview.Camera{YawDeg: 30, PitchDeg: -15},
	}
	img := preview.Render(scene, cfg.PreviewSize, cfg.Supersample)

	res.Image = job.Name + ".webp"
	outPath := filepath.Join(cfg.OutputDir, res.Image)
	if err := preview.WriteWebP(outPath, img); err != nil {
		return fail(fmt.Errorf("pipeline: job %s: %w", job.Name, err))
	}

	res.Success = true
	return res
}
