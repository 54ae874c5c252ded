package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/gateway"
	"github.com/Yates-Labs/auditbot/internal/prompt"
	"github.com/sirupsen/logrus"
)

// ChatTurn is the outcome of one chat question.
type ChatTurn struct {
	SessionID string            `json:"session_id"`
	Dataset   string            `json:"dataset"`
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	OK        bool              `json:"ok"`
	Records   int               `json:"records"`
	Retrieved int               `json:"retrieved,omitempty"`
	Warnings  []dataset.Warning `json:"warnings,omitempty"`
	Metadata  gateway.Metadata  `json:"metadata"`
}

// Chat answers question from the evaluations of a dataset and records both
// turns in the session history. With no records the model is not called and
// the history is left untouched.
func (a *Assistant) Chat(ctx context.Context, sessionID, datasetName string, limit int, question string) (ChatTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return ChatTurn{}, ErrEmptyQuestion
	}

	sess := a.sessions.Get(sessionID)
	name, res := a.load(datasetName, a.limit(limit))
	turn := ChatTurn{
		SessionID: sess.ID,
		Dataset:   name,
		Question:  question,
		Records:   len(res.Records),
		Warnings:  res.Warnings,
	}

	if len(res.Records) == 0 {
		turn.Answer = NoRecordsMessage
		return turn, nil
	}

	records := res.Records
	if a.retrieval != nil {
		if selected, ok := a.retrieve(ctx, question, name, records); ok {
			records = selected
			turn.Retrieved = len(selected)
		}
	}

	evaluationContext := prompt.BuildContext(records)
	if a.opts.HistoryEnabled {
		history := prompt.HistoryFragment(sess.History(name), a.opts.HistoryMessages)
		evaluationContext = prompt.WithHistory(history, evaluationContext)
	}

	result := a.gateway.Complete(ctx, gateway.PurposeChat, prompt.ChatPrompt(question, evaluationContext), nil)
	turn.Answer = result.Text()
	turn.OK = result.OK()
	turn.Metadata = result.Metadata

	sess.Append(name,
		prompt.Message{Role: prompt.RoleUser, Content: question},
		prompt.Message{Role: prompt.RoleAssistant, Content: turn.Answer},
	)

	a.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"dataset": name,
		"records": turn.Records,
		"ok":      turn.OK,
	}).Info("chat answered")

	return turn, nil
}

// History returns the chat messages of a session for a dataset.
func (a *Assistant) History(sessionID, datasetName string) []prompt.Message {
	sess, ok := a.sessions.Lookup(sessionID)
	if !ok {
		return nil
	}
	name, _ := a.resolve(datasetName)
	return sess.History(name)
}

// ResetChat clears the chat history of a session for a dataset.
func (a *Assistant) ResetChat(sessionID, datasetName string) {
	sess, ok := a.sessions.Lookup(sessionID)
	if !ok {
		return
	}
	name, _ := a.resolve(datasetName)
	sess.ResetChat(name)
}

// ReportView is a generated strategic report.
type ReportView struct {
	Dataset     string            `json:"dataset"`
	Records     int               `json:"records"`
	Questions   []string          `json:"questions,omitempty"`
	Report      string            `json:"report"`
	OK          bool              `json:"ok"`
	GeneratedAt time.Time         `json:"generated_at"`
	Warnings    []dataset.Warning `json:"warnings,omitempty"`
	Metadata    gateway.Metadata  `json:"metadata"`
}

// Report generates the fixed-question report for a dataset. Without records
// or without predefined questions no model call is made.
func (a *Assistant) Report(ctx context.Context, datasetName string, limit int) ReportView {
	name, res := a.load(datasetName, a.limit(limit))
	view := ReportView{
		Dataset:     name,
		Records:     len(res.Records),
		GeneratedAt: a.now(),
		Warnings:    res.Warnings,
	}

	if len(res.Records) == 0 {
		view.Report = NoReportDataMessage
		return view
	}
	questions := prompt.QuestionsFor(name)
	if len(questions) == 0 {
		view.Report = fmt.Sprintf(NoQuestionsTemplate, name)
		return view
	}
	view.Questions = questions

	p := prompt.ReportPrompt(name, prompt.BuildContext(res.Records), questions)
	result := a.gateway.Complete(ctx, gateway.PurposeReport, p, nil)
	view.Report = result.Text()
	view.OK = result.OK()
	view.Metadata = result.Metadata

	a.log.WithFields(logrus.Fields{
		"dataset": name,
		"records": view.Records,
		"ok":      view.OK,
	}).Info("report generated")

	return view
}

// SummaryView is a condensed version of a dataset's chat context.
type SummaryView struct {
	Dataset  string            `json:"dataset"`
	Records  int               `json:"records"`
	Summary  string            `json:"summary"`
	OK       bool              `json:"ok"`
	Warnings []dataset.Warning `json:"warnings,omitempty"`
}

// Summarize condenses the evaluation context of a dataset to roughly
// maxChars characters.
func (a *Assistant) Summarize(ctx context.Context, datasetName string, limit, maxChars int) SummaryView {
	name, res := a.load(datasetName, a.limit(limit))
	view := SummaryView{Dataset: name, Records: len(res.Records), Warnings: res.Warnings}
	if len(res.Records) == 0 {
		view.Summary = NoRecordsMessage
		return view
	}

	p := prompt.SummarizePrompt(prompt.BuildContext(res.Records), maxChars)
	result := a.gateway.Complete(ctx, gateway.PurposeSummary, p, nil)
	view.Summary = result.Text()
	view.OK = result.OK()
	return view
}

// SentimentView is the aggregate sentiment of a dataset.
type SentimentView struct {
	Dataset   string            `json:"dataset"`
	Records   int               `json:"records"`
	Sentiment *prompt.Sentiment `json:"sentiment,omitempty"`
	Message   string            `json:"message,omitempty"`
	OK        bool              `json:"ok"`
	Warnings  []dataset.Warning `json:"warnings,omitempty"`
}

// Sentiment classifies each call and returns the counts plus a trend.
func (a *Assistant) Sentiment(ctx context.Context, datasetName string, limit int) SentimentView {
	name, res := a.load(datasetName, a.limit(limit))
	view := SentimentView{Dataset: name, Records: len(res.Records), Warnings: res.Warnings}
	if len(res.Records) == 0 {
		view.Message = NoRecordsMessage
		return view
	}

	result := a.gateway.Complete(ctx, gateway.PurposeSentiment, prompt.SentimentPrompt(res.Records), nil)
	if !result.OK() {
		view.Message = result.Text()
		return view
	}

	s, err := prompt.ParseSentiment(result.Value())
	if err != nil {
		a.log.WithError(err).WithField("dataset", name).Warn("unparseable sentiment reply")
		view.Message = fmt.Sprintf(gateway.SentimentFailureTemplate, err)
		return view
	}
	view.Sentiment = &s
	view.OK = true
	return view
}
