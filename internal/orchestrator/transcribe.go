package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/Yates-Labs/auditbot/internal/gateway"
	"github.com/Yates-Labs/auditbot/internal/prompt"
	"github.com/Yates-Labs/auditbot/internal/session"
	"github.com/sirupsen/logrus"
)

// TranscriptionView is the outcome of processing one recording.
type TranscriptionView struct {
	SessionID     string           `json:"session_id"`
	Filename      string           `json:"filename"`
	URI           string           `json:"uri,omitempty"`
	Transcription string           `json:"transcription,omitempty"`
	OK            bool             `json:"ok"`
	Error         string           `json:"error,omitempty"`
	ProcessedAt   time.Time        `json:"processed_at"`
	Metadata      gateway.Metadata `json:"metadata"`
}

// Transcribe uploads a recording and asks the model for a diarized
// transcription. An upload failure ends the action before any model call.
// Only successful transcriptions become the session's last transcription.
func (a *Assistant) Transcribe(ctx context.Context, sessionID, filename string, data []byte) TranscriptionView {
	sess := a.sessions.Get(sessionID)
	view := TranscriptionView{
		SessionID:   sess.ID,
		Filename:    filename,
		ProcessedAt: a.now(),
	}

	if a.uploader == nil {
		view.Error = fmt.Sprintf(UploadFailureTemplate, ErrNoUploader)
		return view
	}

	uri, err := a.uploader.Upload(ctx, data, filename)
	if err != nil {
		view.Error = fmt.Sprintf(UploadFailureTemplate, err)
		return view
	}
	view.URI = uri

	result := a.gateway.Complete(ctx, gateway.PurposeTranscription, prompt.TranscriptionPrompt(), gateway.AudioAttachment(uri))
	view.Metadata = result.Metadata
	if !result.OK() {
		view.Error = result.Text()
		return view
	}

	view.Transcription = result.Value()
	view.OK = true
	sess.SetLastTranscription(session.Transcription{
		Filename:      filename,
		URI:           uri,
		Transcription: view.Transcription,
		Timestamp:     view.ProcessedAt,
	})

	a.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"uri":     uri,
	}).Info("recording transcribed")

	return view
}

// LastTranscription returns the last successful transcription of a session.
func (a *Assistant) LastTranscription(sessionID string) (session.Transcription, bool) {
	sess, ok := a.sessions.Lookup(sessionID)
	if !ok {
		return session.Transcription{}, false
	}
	return sess.LastTranscription()
}
