package e2e

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJobLifecycle(t *testing.T) {
	ta := setupApp(t, appOptions{})

	jobID := createJob(t, ta)
	result := waitForJobStatus(t, ta, jobID, "done")

	files, _ := result["files"].([]interface{})
	if len(files) != 1 {
		t.Fatalf("expected 1 file in status, got %d", len(files))
	}
	file, _ := files[0].(map[string]interface{})
	if file["originalName"] != "talk.mp4" {
		t.Errorf("unexpected originalName %v", file["originalName"])
	}
	if file["status"] != "done" {
		t.Errorf("expected file status 'done', got %v", file["status"])
	}
	downloadURL, _ := file["downloadUrl"].(string)
	if !strings.HasPrefix(downloadURL, "/api/jobs/"+jobID+"/files/") {
		t.Fatalf("unexpected downloadUrl %q", downloadURL)
	}

	resp, err := ta.app.Test(httpGet(t, downloadURL), -1)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	if body := readBody(t, resp); body != "encoded media" {
		t.Errorf("unexpected download body %q", body)
	}
}

func TestJobStatus_UnknownJob(t *testing.T) {
	ta := setupApp(t, appOptions{})

	resp, err := ta.app.Test(httpGet(t, "/api/jobs/"+uuid.New().String()), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusGone)
	result := parseJSON(t, resp)
	errObj, _ := result["error"].(map[string]interface{})
	if errObj["code"] != "EXPIRED" {
		t.Errorf("expected EXPIRED, got %v", errObj["code"])
	}
}

func TestDownload_UnknownFile(t *testing.T) {
	ta := setupApp(t, appOptions{})

	jobID := createJob(t, ta)
	waitForJobStatus(t, ta, jobID, "done")

	resp, err := ta.app.Test(httpGet(t, "/api/jobs/"+jobID+"/files/other.mp4"), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestDownload_UnknownJob(t *testing.T) {
	ta := setupApp(t, appOptions{})

	resp, err := ta.app.Test(httpGet(t, "/api/jobs/"+uuid.New().String()+"/files/talk_cut.mp4"), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusGone)
}

func TestJobExpiry(t *testing.T) {
	ta := setupApp(t, appOptions{ttl: 200 * time.Millisecond})

	jobID := createJob(t, ta)
	waitForJobStatus(t, ta, jobID, "done")

	deadline := time.After(5 * time.Second)
	for {
		resp, err := ta.app.Test(httpGet(t, "/api/jobs/"+jobID), -1)
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		code := resp.StatusCode
		resp.Body.Close()
		if code == http.StatusGone {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job status still served after TTL")
		case <-time.After(20 * time.Millisecond):
		}
	}

	// The produced output disappears with the job.
	resp, err := ta.app.Test(httpGet(t, "/api/jobs/"+jobID+"/files/00_talk_cut.mp4"), -1)
	if err != nil {
		t.Fatalf("download request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusGone)
}
