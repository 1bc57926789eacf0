package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/quietcut/api/internal/config"
	"github.com/quietcut/api/internal/handler"
	"github.com/quietcut/api/internal/middleware"
	"github.com/quietcut/api/internal/service"
	"github.com/quietcut/api/internal/storage"
	"github.com/quietcut/api/internal/worker"
	ws "github.com/quietcut/api/internal/websocket"
	"github.com/quietcut/api/pkg/response"
)

// stubMediaTool stands in for ffmpeg: the probe reports a fixed duration,
// detection reports one silence, and encodes write their output file.
type stubMediaTool struct{}

func (stubMediaTool) IsConfigured() bool { return true }

func (stubMediaTool) Run(_ context.Context, args ...string) (string, error) {
	trace := "  Duration: 00:00:10.00, start: 0.000000, bitrate: 128 kb/s\n"
	for _, a := range args {
		if a == "-af" {
			return trace +
				"[silencedetect @ 0x1] silence_start: 3.0\n" +
				"[silencedetect @ 0x1] silence_end: 5.0 | silence_duration: 2.0\n", nil
		}
	}
	if out := args[len(args)-1]; out != "-" {
		if err := os.WriteFile(out, []byte("encoded media"), 0o644); err != nil {
			return "", err
		}
	}
	return trace, nil
}

type appOptions struct {
	ttl      time.Duration
	maxFiles int
}

type testApp struct {
	app *fiber.App
}

// setupApp builds a Fiber app wired like main.go, with the media tool
// stubbed out and a test-local work directory.
func setupApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()

	if opts.ttl == 0 {
		opts.ttl = time.Hour
	}
	if opts.maxFiles == 0 {
		opts.maxFiles = 10
	}

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to prepare work directory: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	jobService := service.NewJobService(store, opts.ttl)
	t.Cleanup(jobService.Close)

	processing := config.ProcessingConfig{
		Concurrency:   2,
		NoiseDb:       -30,
		MinSilenceSec: 0.5,
		PreBufferSec:  0.25,
		PostBufferSec: 0.25,
		MinKeepSec:    0.2,
		FadeSec:       0.08,
	}
	scheduler := worker.NewScheduler(jobService, store, stubMediaTool{}, hub, processing)
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	t.Cleanup(stopScheduler)
	go scheduler.Run(schedCtx)

	uploadCfg := config.UploadConfig{
		MaxFiles:      opts.maxFiles,
		MaxFileSizeMB: 64,
		PerHour:       10000, // never rate-limit tests
	}
	uploadHandler := handler.NewUploadHandler(jobService, scheduler, uploadCfg)
	jobHandler := handler.NewJobHandler(jobService)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return response.Error(c, code, response.CodeServiceError, message, nil)
		},
		BodyLimit: 128 * 1024 * 1024,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"ffmpeg": true,
			},
		})
	})

	api := app.Group("/api")
	api.Post("/jobs", middleware.UploadLimit(uploadCfg.PerHour), uploadHandler.Create)
	api.Get("/jobs/:jobId", jobHandler.Status)
	api.Get("/jobs/:jobId/files/:name", jobHandler.Download)

	return &testApp{app: app}
}

type uploadFile struct {
	name        string
	contentType string
}

// createJobRequest builds a multipart POST /api/jobs carrying fake media
// files.
func createJobRequest(t *testing.T, files ...uploadFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		partHeader := make(textproto.MIMEHeader)
		partHeader.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		partHeader.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(partHeader)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		_, _ = part.Write([]byte("ftyp fake media payload"))
		_, _ = part.Write(make([]byte, 1024))
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/jobs", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// createJob uploads one media file and returns the accepted job id.
func createJob(t *testing.T, ta *testApp) string {
	t.Helper()
	resp, err := ta.app.Test(createJobRequest(t, uploadFile{"talk.mp4", "video/mp4"}), -1)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	result := parseJSON(t, resp)
	id, _ := result["id"].(string)
	if id == "" {
		t.Fatal("expected 'id' in upload response")
	}
	return id
}

// waitForJobStatus polls the status endpoint until the job reaches the
// wanted status.
func waitForJobStatus(t *testing.T, ta *testApp, jobID, want string) map[string]interface{} {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		resp, err := ta.app.Test(httpGet(t, "/api/jobs/"+jobID), -1)
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		if resp.StatusCode == http.StatusOK {
			result := parseJSON(t, resp)
			if result["status"] == want {
				return result
			}
		} else {
			resp.Body.Close()
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never reached status %q", jobID, want)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func httpGet(t *testing.T, path string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, strings.NewReader(""))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return req
}
