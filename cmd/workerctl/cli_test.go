package main

import (
	"encoding/json"
	"testing"

	apiv1 "workerd/api/v1"
)

func TestMapState(t *testing.T) {
	t.Parallel()

	scenarios := map[apiv1.WorkerState]string{
		apiv1.WorkerState_WORKER_STATE_STARTING:    "Starting",
		apiv1.WorkerState_WORKER_STATE_RUNNING:     "Running",
		apiv1.WorkerState_WORKER_STATE_EXITED:      "Exited",
		apiv1.WorkerState_WORKER_STATE_FAILED:      "Failed",
		apiv1.WorkerState_WORKER_STATE_UNSPECIFIED: "Unknown",
	}

	for state, want := range scenarios {
		if got := mapState(state); got != want {
			t.Errorf("expected state string: got '%s', want '%s'", got, want)
		}
	}
}

func TestStatusOutputShape(t *testing.T) {
	t.Parallel()

	t.Run("Test running worker omits exit code", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(statusOutput{State: "Running", Done: false})
		if err != nil {
			t.Fatalf("expected marshal not to return error: got '%v'", err)
		}

		want := `{"state":"Running","done":false}`
		if string(data) != want {
			t.Errorf("expected JSON: got '%s', want '%s'", data, want)
		}
	})

	t.Run("Test exited worker includes exit code", func(t *testing.T) {
		t.Parallel()

		code := int32(42)
		pid := int32(1234)

		data, err := json.Marshal(statusOutput{
			State:    "Exited",
			Done:     true,
			ExitCode: &code,
			PID:      &pid,
		})
		if err != nil {
			t.Fatalf("expected marshal not to return error: got '%v'", err)
		}

		want := `{"state":"Exited","done":true,"exitCode":42,"pid":1234}`
		if string(data) != want {
			t.Errorf("expected JSON: got '%s', want '%s'", data, want)
		}
	})

	t.Run("Test zero exit code is still emitted", func(t *testing.T) {
		t.Parallel()

		code := int32(0)

		data, err := json.Marshal(statusOutput{
			State:    "Exited",
			Done:     true,
			ExitCode: &code,
		})
		if err != nil {
			t.Fatalf("expected marshal not to return error: got '%v'", err)
		}

		want := `{"state":"Exited","done":true,"exitCode":0}`
		if string(data) != want {
			t.Errorf("expected JSON: got '%s', want '%s'", data, want)
		}
	})
}
