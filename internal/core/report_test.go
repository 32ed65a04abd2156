package core

import (
	"errors"
	"testing"
	"time"
)

func TestReport_FromWorkflow(t *testing.T) {
	wf := NewWorkflow("wf", "")
	wf.AddTask("ok", noop())
	wf.AddTask("bad", noop())
	wf.AddTask("skip", noop())

	ok, _ := wf.GetTask("ok")
	_ = ok.MarkRunning()
	_ = ok.MarkCompleted(map[string]any{"valid": true})
	bad, _ := wf.GetTask("bad")
	_ = bad.MarkRunning()
	_ = bad.MarkFailed(errors.New("card declined"))
	skip, _ := wf.GetTask("skip")
	_ = skip.MarkSkipped("dependency failed")

	r := NewReport("run-1", wf, time.Now())
	if len(r.Tasks) != 3 || r.Tasks[0].Name != "ok" {
		t.Fatalf("unexpected tasks %+v", r.Tasks)
	}
	if r.Completed() != 1 || r.Failed() != 1 || r.Skipped() != 1 {
		t.Fatalf("unexpected counts: %d/%d/%d", r.Completed(), r.Failed(), r.Skipped())
	}
	if r.Succeeded() {
		t.Fatalf("report with failures must not succeed")
	}

	m := r.AsMap()
	if m["ok"]["status"] != "completed" || m["ok"]["error"] != nil {
		t.Fatalf("unexpected ok entry %v", m["ok"])
	}
	if m["bad"]["error"] != "card declined" || m["bad"]["result"] != nil {
		t.Fatalf("unexpected bad entry %v", m["bad"])
	}
	if m["skip"]["result"] != nil || m["skip"]["error"] != nil {
		t.Fatalf("skipped entry must have neither result nor error: %v", m["skip"])
	}

	if _, found := r.Get("bad"); !found {
		t.Fatalf("Get should find bad")
	}
	if _, found := r.Get("nope"); found {
		t.Fatalf("Get should not find unknown task")
	}
}
