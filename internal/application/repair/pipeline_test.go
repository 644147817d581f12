package repair

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakeminator123/sajtmaskin-sub013/internal/application/repair/imagecheck"
	"github.com/Jakeminator123/sajtmaskin-sub013/internal/domain/entity"
)

type imageValidatorFunc func(ctx context.Context, files []entity.GeneratedFile, opts imagecheck.Options) (*imagecheck.Report, []entity.GeneratedFile, error)

func (f imageValidatorFunc) Validate(ctx context.Context, files []entity.GeneratedFile, opts imagecheck.Options) (*imagecheck.Report, []entity.GeneratedFile, error) {
	return f(ctx, files, opts)
}

func TestPipelineRunsAllPassesInOrder(t *testing.T) {
	var seenOpts imagecheck.Options
	var seenContent string
	images := imageValidatorFunc(func(_ context.Context, files []entity.GeneratedFile, opts imagecheck.Options) (*imagecheck.Report, []entity.GeneratedFile, error) {
		seenOpts = opts
		seenContent = files[0].Content
		return &imagecheck.Report{
			Checked: 2,
			Broken:  []entity.BrokenImageRef{{URL: "https://x.test/a.png", Reason: entity.ImageReasonHTTPError, StatusCode: 404}},
		}, files, nil
	})
	p := NewPipeline(images, true)

	files := []entity.GeneratedFile{
		{Path: "app/page.tsx", Content: `<h1>Caf\u00e9</h1>`},
		{Path: "app/globals.css", Content: ":root {\n  --brand: ;\n}"},
		{Path: "app/locked.css", Content: ":root {\n  --x: ;\n}", Locked: true},
		{Path: "app/locked.tsx", Content: `\u0041`, Locked: true},
	}

	var steps []string
	out, report, err := p.Run(context.Background(), files, func(s string) { steps = append(steps, s) })
	require.NoError(t, err)

	assert.Equal(t, []string{StepUnicode, StepStyles, StepImages}, steps)
	assert.True(t, seenOpts.AutoFix)
	assert.Equal(t, "<h1>Café</h1>", seenContent)

	assert.Equal(t, 1, report.UnicodeFixed)
	require.Len(t, report.StyleIssues, 2)
	assert.Equal(t, "app/globals.css", report.StyleIssues[0].File)
	assert.Equal(t, "app/locked.css", report.StyleIssues[1].File)
	assert.Equal(t, 2, report.ImagesChecked)
	assert.Len(t, report.BrokenImages, 1)

	assert.Equal(t, ":root {\n  --brand: initial;\n}", out[1].Content)
	assert.Equal(t, files[2], out[2])
	assert.Equal(t, files[3], out[3])
	assert.Contains(t, files[0].Content, `\u00e9`)
}

func TestPipelineImageFailureIsNotFatal(t *testing.T) {
	images := imageValidatorFunc(func(context.Context, []entity.GeneratedFile, imagecheck.Options) (*imagecheck.Report, []entity.GeneratedFile, error) {
		return nil, nil, errors.New("check exploded")
	})
	p := NewPipeline(images, false)

	files := []entity.GeneratedFile{{Path: "index.html", Content: "<p>hi</p>"}}
	out, report, err := p.Run(context.Background(), files, nil)
	require.NoError(t, err)
	assert.Equal(t, files, out)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "check exploded")
}

func TestPipelineStopsOnCancel(t *testing.T) {
	called := false
	images := imageValidatorFunc(func(_ context.Context, files []entity.GeneratedFile, _ imagecheck.Options) (*imagecheck.Report, []entity.GeneratedFile, error) {
		called = true
		return &imagecheck.Report{}, files, nil
	})
	p := NewPipeline(images, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := p.Run(ctx, []entity.GeneratedFile{{Path: "a.css", Content: "a{}"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSummary(t *testing.T) {
	r := &entity.RepairReport{UnicodeFixed: 1, ImagesChecked: 3, ImagesReplaced: 1,
		BrokenImages: []entity.BrokenImageRef{{}}}
	assert.Equal(t, "unicode=1 styles=0 images=1/3 replaced=1", Summary(r))
	assert.Empty(t, Summary(nil))
}
