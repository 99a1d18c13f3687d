package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"avatar-fitter/internal/attach"
	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
	"avatar-fitter/internal/pipeline"
	"avatar-fitter/internal/region"
	"avatar-fitter/internal/shrinkwrap"
	"avatar-fitter/internal/skeleton"
)

func testConfig(t *testing.T) pipeline.Config {
	t.Helper()
	return pipeline.Config{
		OutputDir:           t.TempDir(),
		PreviewSize:         32,
		Supersample:         1,
		Workers:             2,
		Fitting:             shrinkwrap.DefaultConfig(),
		Heuristics:          region.DefaultHeuristics(),
		BindRadius:          0.8,
		CollisionSampleRate: 1.0,
	}
}

func TestRunFitJob(t *testing.T) {
	cfg := testConfig(t)
	const height = 1.8

	avatar := geom.NewCapsule("avatar", 0.25, height, 12, 4)
	rig := skeleton.NewHumanoid(height)
	garment := geom.NewTube("garment", 0.45, 0.5, 12, 3)
	garment.Transform = mathutil.TranslationMat4(mathutil.Vec3{0, 0.9, 0})

	results := pipeline.Run(context.Background(), cfg, []pipeline.Job{{
		Name:      "garment",
		Avatar:    avatar,
		Skeleton:  rig,
		Equipment: garment,
		Fit:       true,
		Bind:      true,
	}})

	if len(results) != 1 {
		t.Fatalf("%d results, want 1", len(results))
	}
	r := results[0]
	if !r.Success {
		t.Fatalf("job failed: %s", r.Error)
	}
	if r.FitReport.VerticesMoved == 0 {
		t.Fatal("fit moved nothing")
	}
	if r.Collisions != 0 {
		t.Fatalf("fitted garment reports %d collisions", r.Collisions)
	}

	if _, err := os.Stat(filepath.Join(cfg.OutputDir, r.Image)); err != nil {
		t.Fatalf("preview not written: %v", err)
	}
}

func TestRunAttachJobWithFallback(t *testing.T) {
	cfg := testConfig(t)
	const height = 1.8

	avatar := geom.NewCapsule("avatar", 0.25, height, 12, 4)
	rig := skeleton.New()
	rig.AddBone("Root", -1, mathutil.Mat4Identity())
	sword := geom.NewBox("sword", mathutil.Vec3{0.1, 0.1, 2})
	grip := mathutil.Vec3{0, 0, -0.9}

	results := pipeline.Run(context.Background(), cfg, []pipeline.Job{{
		Name:         "sword",
		Avatar:       avatar,
		Skeleton:     rig,
		Equipment:    sword,
		Attach:       true,
		Slot:         attach.SlotHandRight,
		Category:     attach.CategorySword,
		Grip:         &grip,
		AvatarHeight: height,
	}})

	r := results[0]
	if !r.Success {
		t.Fatalf("job failed: %s", r.Error)
	}
	if !r.UsedRootFallback {
		t.Fatal("root fallback not reported")
	}
}

func TestRunReportsBadJob(t *testing.T) {
	cfg := testConfig(t)
	avatar := geom.NewCapsule("avatar", 0.25, 1.8, 12, 4)

	results := pipeline.Run(context.Background(), cfg, []pipeline.Job{{
		Name:      "broken",
		Avatar:    avatar,
		Skeleton:  skeleton.NewHumanoid(1.8),
		Equipment: geom.NewMesh("empty"),
		Fit:       true,
	}})

	if results[0].Success {
		t.Fatal("invalid mesh job succeeded")
	}
	if results[0].Error == "" {
		t.Fatal("failure carries no error text")
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	results := []pipeline.Result{
		{Name: "a", Success: true, Collisions: 2, Image: "a.webp"},
		{Name: "b", Error: "boom"},
	}
	if err := pipeline.WriteManifest(path, results); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []pipeline.ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("%d entries, want 2", len(entries))
	}
	if entries[0].Name != "a" || !entries[0].Success || entries[0].Collisions != 2 {
		t.Fatalf("entry 0 = %+v", entries[0])
	}
	if entries[1].Error != "boom" {
		t.Fatalf("entry 1 = %+v", entries[1])
	}
}
