package ocr_test

import (
	"context"
	"errors"
	"image"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/nodewee/img-to-doc/pkg/interfaces"
	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines"
	"github.com/nodewee/img-to-doc/pkg/ocr/ocrtest"
	"github.com/nodewee/img-to-doc/pkg/types"
	"github.com/nodewee/img-to-doc/pkg/utils"
)

var reportingCaps = types.EngineCapabilities{
	Kind:              types.KindDetectRecognize,
	ReportsConfidence: true,
}

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func helloSpans() []types.Span {
	return []types.Span{
		ocrtest.Word("Foo", 10, 50, 30, 20, 0.7),
		ocrtest.Word("World", 60, 12, 40, 20, 0.9),
		ocrtest.Word("Hello", 10, 10, 40, 20, 0.8),
	}
}

// newTestProcessor registers a "fake" engine whose sessions return spans
func newTestProcessor(spans []types.Span, caps types.EngineCapabilities) (*ocr.Processor, *ocrtest.Loader) {
	loader := &ocrtest.Loader{New: func(opts types.SessionOptions) *ocrtest.Engine {
		return &ocrtest.Engine{EngineID: opts.Engine, Caps: caps, Spans: spans}
	}}
	reg := ocr.NewRegistry(nil)
	ocrtest.Register(reg, "fake", caps, loader)
	p := ocr.NewProcessor(reg, ocr.WithDefaults(types.SessionOptions{Engine: "fake", Languages: []string{"en"}}))
	return p, loader
}

func TestInitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p, loader := newTestProcessor(nil, reportingCaps)

	if p.State() != ocr.StateUninitialized {
		t.Fatalf("initial state = %v", p.State())
	}
	first, err := p.Initialize(ctx, "fake", []string{"en"}, false)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	second, err := p.Initialize(ctx, "fake", []string{"en"}, false)
	if err != nil {
		t.Fatalf("Initialize again: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same session for identical parameters")
	}
	if loader.Loads() != 1 {
		t.Fatalf("loads = %d, want 1", loader.Loads())
	}
	if p.State() != ocr.StateReady {
		t.Fatalf("state = %v, want ready", p.State())
	}
}

func TestInitializeWithNewParametersReplacesSession(t *testing.T) {
	ctx := context.Background()
	p, loader := newTestProcessor(nil, reportingCaps)

	if _, err := p.Initialize(ctx, "fake", []string{"en"}, false); err != nil {
		t.Fatal(err)
	}
	session, err := p.Initialize(ctx, "fake", []string{"en", "fr"}, true)
	if err != nil {
		t.Fatalf("re-Initialize: %v", err)
	}
	if loader.Loads() != 2 {
		t.Fatalf("loads = %d, want 2", loader.Loads())
	}
	sessions := loader.Engines()
	if !sessions[0].Closed.Load() {
		t.Fatalf("previous session was not closed")
	}
	if sessions[1].Closed.Load() {
		t.Fatalf("new session closed")
	}
	want := types.SessionOptions{Engine: "fake", Languages: []string{"en", "fr"}, GPU: true}
	if !reflect.DeepEqual(session.Options, want) {
		t.Fatalf("session options = %+v, want %+v", session.Options, want)
	}
}

func TestFailedInitializeCanBeRetried(t *testing.T) {
	ctx := context.Background()
	p, loader := newTestProcessor(nil, reportingCaps)

	loader.Err = errors.New("weights missing")
	if _, err := p.Initialize(ctx, "fake", []string{"en"}, false); err == nil {
		t.Fatal("expected initialization error")
	} else if !utils.IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if p.State() != ocr.StateUninitialized || p.Session() != nil {
		t.Fatalf("failed init left state %v, session %v", p.State(), p.Session())
	}

	loader.Err = nil
	if _, err := p.Initialize(ctx, "fake", []string{"en"}, false); err != nil {
		t.Fatalf("retry Initialize: %v", err)
	}
	if p.State() != ocr.StateReady {
		t.Fatalf("state = %v", p.State())
	}
}

func TestFailedReinitializeKeepsPreviousSession(t *testing.T) {
	ctx := context.Background()
	p, loader := newTestProcessor(helloSpans(), reportingCaps)

	old, err := p.Initialize(ctx, "fake", []string{"en"}, false)
	if err != nil {
		t.Fatal(err)
	}
	loader.Err = errors.New("gpu out of memory")
	if _, err := p.Initialize(ctx, "fake", []string{"en"}, true); err == nil {
		t.Fatal("expected error")
	}
	if p.Session() != old || p.State() != ocr.StateReady {
		t.Fatalf("previous session should survive a failed re-init")
	}
	if loader.Engines()[0].Closed.Load() {
		t.Fatalf("previous engine closed by failed re-init")
	}
	if _, err := p.Extract(ctx, testImage(), false); err != nil {
		t.Fatalf("Extract after failed re-init: %v", err)
	}
}

func TestInitializeUnknownAndUnavailableEngines(t *testing.T) {
	ctx := context.Background()
	reg := ocr.NewRegistry(nil)
	reg.Register(ocr.Registration{ID: "missing", Available: func() bool { return false }})
	p := ocr.NewProcessor(reg)

	if _, err := p.Initialize(ctx, "missing", nil, false); !utils.IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if _, err := p.Initialize(ctx, "nope", nil, false); utils.GetErrorType(err) != utils.ErrorTypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLazyInitialization(t *testing.T) {
	p, loader := newTestProcessor(helloSpans(), reportingCaps)

	got, err := p.Extract(context.Background(), testImage(), false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Hello World\nFoo" {
		t.Fatalf("Extract = %q", got)
	}
	if loader.Loads() != 1 {
		t.Fatalf("loads = %d, want 1", loader.Loads())
	}
	if p.Session().Options.Engine != "fake" {
		t.Fatalf("lazy session engine = %s", p.Session().Options.Engine)
	}
}

func TestZeroDetections(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProcessor([]types.Span{}, reportingCaps)

	text, err := p.Extract(ctx, testImage(), false)
	if err != nil || text != "" {
		t.Fatalf("Extract = %q, %v", text, err)
	}
	conf, err := p.Confidence(ctx, testImage(), false)
	if err != nil || conf != 0.0 {
		t.Fatalf("Confidence = %v, %v", conf, err)
	}
}

func TestConfidence(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProcessor(helloSpans(), reportingCaps)

	conf, err := p.Confidence(ctx, testImage(), true)
	if err != nil {
		t.Fatalf("Confidence: %v", err)
	}
	if math.Abs(conf-0.8) > 1e-9 {
		t.Fatalf("Confidence = %v, want 0.8", conf)
	}

	lineText := types.EngineCapabilities{Kind: types.KindLineText}
	p, _ = newTestProcessor(helloSpans(), lineText)
	score, err := p.ConfidenceScore(ctx, testImage(), false)
	if err != nil {
		t.Fatalf("ConfidenceScore: %v", err)
	}
	if score.Reported || score.Value != 0 {
		t.Fatalf("non-reporting engine score = %+v", score)
	}
}

func TestEngineErrorIsRecoverable(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("cuda error")
	loader := &ocrtest.Loader{New: func(opts types.SessionOptions) *ocrtest.Engine {
		return &ocrtest.Engine{EngineID: opts.Engine, Caps: reportingCaps, Err: cause}
	}}
	reg := ocr.NewRegistry(nil)
	ocrtest.Register(reg, "fake", reportingCaps, loader)
	p := ocr.NewProcessor(reg, ocr.WithDefaults(types.SessionOptions{Engine: "fake"}))

	_, err := p.Extract(ctx, testImage(), false)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, cause) || !utils.IsRecoverable(err) {
		t.Fatalf("unexpected error %v", err)
	}
	if utils.GetErrorType(err) != utils.ErrorTypeOCR {
		t.Fatalf("error type = %s", utils.GetErrorType(err))
	}
	if p.State() != ocr.StateReady {
		t.Fatalf("state after failure = %v, want ready", p.State())
	}
}

func TestEnginePanicIsRecovered(t *testing.T) {
	loader := &ocrtest.Loader{New: func(opts types.SessionOptions) *ocrtest.Engine {
		return &ocrtest.Engine{EngineID: opts.Engine, Caps: reportingCaps, Panic: "index out of range"}
	}}
	reg := ocr.NewRegistry(nil)
	ocrtest.Register(reg, "fake", reportingCaps, loader)
	p := ocr.NewProcessor(reg, ocr.WithDefaults(types.SessionOptions{Engine: "fake"}))

	_, err := p.Confidence(context.Background(), testImage(), false)
	if err == nil || !utils.IsRecoverable(err) {
		t.Fatalf("expected recoverable error, got %v", err)
	}
	if p.State() != ocr.StateReady {
		t.Fatalf("state after panic = %v", p.State())
	}
}

func TestNilImage(t *testing.T) {
	p, loader := newTestProcessor(nil, reportingCaps)
	_, err := p.Extract(context.Background(), nil, false)
	if utils.GetErrorType(err) != utils.ErrorTypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if loader.Loads() != 0 {
		t.Fatalf("nil image should not load an engine")
	}
}

func TestCancelledContextSkipsEngine(t *testing.T) {
	p, loader := newTestProcessor(helloSpans(), reportingCaps)
	if _, err := p.Initialize(context.Background(), "fake", []string{"en"}, false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Extract(ctx, testImage(), false); !errors.Is(err, context.Canceled) {
		t.Fatalf("Extract error = %v, want context.Canceled", err)
	}
	if calls := loader.Engines()[0].Calls.Load(); calls != 0 {
		t.Fatalf("engine called %d times after cancellation", calls)
	}
	if p.State() != ocr.StateReady {
		t.Fatalf("state = %v, want Ready", p.State())
	}
}

// redDetector reports the whole image as one region and remembers the red
// value of the image it was shown
type redDetector struct{ seen uint8 }

func (d *redDetector) DetectRegions(ctx context.Context, img *image.NRGBA) ([]types.Quad, error) {
	d.seen = img.Pix[0]
	return []types.Quad{types.RectQuad(img.Bounds())}, nil
}

func (d *redDetector) Close() error { return nil }

// redRecognizer remembers the red value of the region it was given
type redRecognizer struct{ seen uint8 }

func (r *redRecognizer) RecognizeRegion(ctx context.Context, region image.Image) (string, error) {
	b := region.Bounds()
	red, _, _, _ := region.At(b.Min.X, b.Min.Y).RGBA()
	r.seen = uint8(red >> 8)
	return "ink", nil
}

func (r *redRecognizer) Close() error { return nil }

func TestHandwritingRegionsCroppedFromOriginal(t *testing.T) {
	detector, recognizer := &redDetector{}, &redRecognizer{}
	reg := ocr.NewRegistry(nil)
	reg.Register(ocr.Registration{
		ID:           types.EngineHandwriting,
		Capabilities: engines.HandwritingCapabilities,
		Available:    func() bool { return true },
		Load: func(ctx context.Context, opts types.SessionOptions) (interfaces.OCREngine, error) {
			return engines.NewHandwritingEngine(detector, recognizer, 1, nil), nil
		},
	})
	p := ocr.NewProcessor(reg, ocr.WithDefaults(types.SessionOptions{Engine: types.EngineHandwriting, Languages: []string{"en"}}))

	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 128, 128, 128, 255
	}

	text, err := p.Extract(context.Background(), src, true)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "ink" {
		t.Fatalf("text = %q", text)
	}
	if recognizer.seen != 128 {
		t.Fatalf("recognizer saw red %d, want the original 128", recognizer.seen)
	}
	if detector.seen == 128 {
		t.Fatal("detector should see the preprocessed image")
	}
}

func TestProcessDurationCoversPipeline(t *testing.T) {
	p, loader := newTestProcessor(helloSpans(), reportingCaps)
	if _, err := p.Initialize(context.Background(), "fake", []string{"en"}, false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	loader.Engines()[0].Hook = func() { time.Sleep(5 * time.Millisecond) }

	res, err := p.Process(context.Background(), testImage(), ocr.ProcessOptions{PreserveStructure: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Duration < 5*time.Millisecond {
		t.Fatalf("Duration = %v, want at least the engine time", res.Duration)
	}
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProcessor(helloSpans(), reportingCaps)

	res, err := p.Process(ctx, testImage(), ocr.ProcessOptions{PreserveStructure: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Text != "Hello World\nFoo" || res.SpanCount != 3 || res.Engine != "fake" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !reflect.DeepEqual(res.Paragraphs, []string{"Hello World", "Foo"}) {
		t.Fatalf("paragraphs = %q", res.Paragraphs)
	}
	if !res.Confidence.Reported || math.Abs(res.Confidence.Value-0.8) > 1e-9 {
		t.Fatalf("confidence = %+v", res.Confidence)
	}

	res, err = p.Process(ctx, testImage(), ocr.ProcessOptions{})
	if err != nil {
		t.Fatalf("Process plain: %v", err)
	}
	if res.Text != "Foo\nWorld\nHello" {
		t.Fatalf("plain text = %q", res.Text)
	}

	plain, err := p.ExtractPlain(ctx, testImage(), false)
	if err != nil || plain != res.Text {
		t.Fatalf("ExtractPlain = %q, %v", plain, err)
	}
}

func TestClose(t *testing.T) {
	p, loader := newTestProcessor(nil, reportingCaps)
	if _, err := p.Initialize(context.Background(), "fake", nil, false); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !loader.Engines()[0].Closed.Load() {
		t.Fatalf("engine not closed")
	}
	if p.State() != ocr.StateUninitialized || p.Session() != nil {
		t.Fatalf("state after close = %v", p.State())
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
