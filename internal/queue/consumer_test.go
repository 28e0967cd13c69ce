package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithish2321/EntraceEase/internal/model"
)

type recorder map[string]model.EmailStatus

func (r recorder) MarkEmailStatus(_ context.Context, id string, s model.EmailStatus) error {
	r[id] = s
	return nil
}

func ticket() model.HallTicket {
	return model.HallTicket{
		AssignmentID: "a-1", StudentID: "s-1", FirstName: "Asha", Email: "asha@example.com",
		Regno: "0105202510001", ExamName: "EEE", TestCenterName: "Center X", Location: "Chennai",
		ExamDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Slot: "Morning",
	}
}

func TestHandleMessageDeliversAndRecordsSent(t *testing.T) {
	dir := t.TempDir()
	rec := recorder{}
	c := &Consumer{LogDir: dir, Recorder: rec}

	body, err := json.Marshal(NewHallTicketDispatchEvent(ticket(), time.Now()))
	require.NoError(t, err)
	require.NoError(t, c.handleMessage(context.Background(), body))

	assert.Equal(t, model.EmailSent, rec["a-1"])
	data, err := os.ReadFile(filepath.Join(dir, "hall_ticket.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "regno=0105202510001")
	assert.Contains(t, string(data), "date=2025-05-01")
}

func TestHandleMessageWithoutEmailRecordsFailed(t *testing.T) {
	rec := recorder{}
	c := &Consumer{LogDir: t.TempDir(), Recorder: rec}
	tk := ticket()
	tk.Email = ""
	body, _ := json.Marshal(NewHallTicketDispatchEvent(tk, time.Now()))

	require.NoError(t, c.handleMessage(context.Background(), body))
	assert.Equal(t, model.EmailFailed, rec["a-1"])
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := &Consumer{LogDir: t.TempDir(), Recorder: recorder{}}
	assert.Error(t, c.handleMessage(context.Background(), []byte("{not json")))
	assert.Error(t, c.handleMessage(context.Background(), []byte(`{"email":"x@y"}`)))
}
