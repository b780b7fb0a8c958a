package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/audit"
	"github.com/ekaya-inc/ekaya-askdb/pkg/llm"
	"github.com/ekaya-inc/ekaya-askdb/pkg/metrics"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/prompts"
	sqlutil "github.com/ekaya-inc/ekaya-askdb/pkg/sql"
	"github.com/ekaya-inc/ekaya-askdb/pkg/telemetry"
)

// AskRequest is one question from a user.
type AskRequest struct {
	SessionID  string         `json:"session_id,omitempty"`
	Datasource string         `json:"datasource,omitempty"`
	Schema     string         `json:"schema,omitempty"`
	Question   string         `json:"question"`
	Mode       models.AskMode `json:"mode,omitempty"`
}

// AskResult is what Ask produced. Which fields are set depends on the mode.
type AskResult struct {
	SessionID        string                     `json:"session_id,omitempty"`
	Mode             models.AskMode             `json:"mode"`
	Datasource       string                     `json:"datasource,omitempty"`
	Schema           string                     `json:"schema,omitempty"`
	SQL              string                     `json:"sql,omitempty"`
	Validation       *sqlutil.SchemaCheckResult `json:"validation,omitempty"`
	Result           *models.ResultTable        `json:"result,omitempty"`
	Reply            string                     `json:"reply,omitempty"`
	InjectionFlagged bool                       `json:"injection_flagged,omitempty"`
}

// ValidationError carries a generated query that failed the schema check.
// It matches apperrors.ErrValidationFailed with errors.Is.
type ValidationError struct {
	SQL   string
	Check *sqlutil.SchemaCheckResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query validation failed: %s", e.Check.Summary())
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidationFailed
}

// AskOptions configures the pipeline.
type AskOptions struct {
	Temperature      float64
	SampleRows       int
	Validation       sqlutil.CheckOptions
	QualifySchema    bool
	PromptTableLimit int
	NarrationRows    int
	Auditor          *audit.SecurityAuditor // nil disables security audit events
}

// AskService turns questions into answers: chat replies, generated SQL,
// query results or narrated results.
type AskService interface {
	// Ask runs the pipeline for req.Mode and records the outcome in the
	// request's session, creating one when needed. On failure the partial
	// result (session id, generated SQL, validation) is returned with the error.
	Ask(ctx context.Context, req AskRequest) (*AskResult, error)

	// GenerateSQL generates and validates SQL without executing it or
	// touching any session.
	GenerateSQL(ctx context.Context, datasourceName, schema, question string) (*AskResult, error)
}

type askService struct {
	schemas  SchemaService
	queries  QueryService
	sessions SessionService
	llm      llm.LLMClient
	opts     AskOptions
	logger   *zap.Logger
}

func NewAskService(
	schemas SchemaService,
	queries QueryService,
	sessions SessionService,
	client llm.LLMClient,
	opts AskOptions,
	logger *zap.Logger,
) AskService {
	if opts.NarrationRows <= 0 {
		opts.NarrationRows = prompts.DefaultNarrationRows
	}
	return &askService{
		schemas:  schemas,
		queries:  queries,
		sessions: sessions,
		llm:      client,
		opts:     opts,
		logger:   logger.Named("ask"),
	}
}

func (s *askService) Ask(ctx context.Context, req AskRequest) (result *AskResult, err error) {
	mode, err := models.ParseAskMode(string(req.Mode))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidRequest)
	}
	req.Mode = mode

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", apperrors.ErrInvalidRequest)
	}

	session := s.sessions.GetOrCreate(req.SessionID)

	ctx, span := telemetry.StartSpan(ctx, "ask")
	defer span.End()
	span.SetAttributes(telemetry.AttrMode.String(string(mode)), telemetry.AttrSessionID.String(session.ID))

	result = &AskResult{SessionID: session.ID, Mode: mode}
	result.InjectionFlagged = s.screenQuestion(ctx, question)

	defer func() {
		telemetry.RecordError(span, err)
		metrics.ObserveAsk(string(mode), metrics.Outcome(err))
		s.record(session, req.Mode, question, result, err)
	}()

	if mode == models.AskModeChat {
		result.Reply, err = s.complete(llm.WithPurpose(ctx, llm.PurposeChat), question, prompts.ChatSystemPrompt)
		if err != nil {
			return result, err
		}
		return result, nil
	}

	if err = s.generateSQL(ctx, req.Datasource, req.Schema, question, result); err != nil {
		return result, err
	}
	if mode == models.AskModeShowSQL {
		return result, nil
	}

	result.Result, err = s.queries.Execute(ctx, result.Datasource, result.SQL)
	if err != nil {
		return result, err
	}
	session.SetLastResult(result.SQL, result.Result)

	if mode == models.AskModeNarrate {
		prompt := prompts.BuildNarrationPrompt(question, result.SQL, result.Result, s.opts.NarrationRows)
		result.Reply, err = s.complete(llm.WithPurpose(ctx, llm.PurposeNarrate), prompt, prompts.NarrationSystemPrompt)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func (s *askService) GenerateSQL(ctx context.Context, datasourceName, schema, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", apperrors.ErrInvalidRequest)
	}

	result := &AskResult{Mode: models.AskModeShowSQL}
	result.InjectionFlagged = s.screenQuestion(ctx, question)

	err := s.generateSQL(ctx, datasourceName, schema, question, result)
	metrics.ObserveAsk(string(models.AskModeShowSQL), metrics.Outcome(err))
	return result, err
}

// generateSQL fills result.SQL and result.Validation. A query that fails
// the schema check is left in result and returned as a *ValidationError;
// nothing is retried or repaired.
func (s *askService) generateSQL(ctx context.Context, datasourceName, schema, question string, result *AskResult) error {
	if llm.IsDisabled(s.llm) {
		return fmt.Errorf("model client disabled: %w", apperrors.ErrServiceUnavailable)
	}

	snapshot, err := s.schemas.Snapshot(ctx, datasourceName, schema, s.opts.SampleRows > 0)
	if err != nil {
		return err
	}
	result.Datasource = snapshot.Datasource
	result.Schema = snapshot.Schema

	promptSnapshot := prompts.RelevantTables(question, snapshot, s.opts.PromptTableLimit)
	prompt := prompts.BuildSQLPrompt(question, promptSnapshot, prompts.SQLPromptOptions{
		Dialect:       snapshot.Dialect,
		SampleRows:    s.opts.SampleRows,
		QualifyTables: s.opts.QualifySchema,
	})

	reply, err := s.complete(llm.WithPurpose(ctx, llm.PurposeSQL), prompt, prompts.SQLSystemPrompt)
	if err != nil {
		return err
	}

	query := sqlutil.StripMarkdownSQL(reply)
	normalized := sqlutil.ValidateAndNormalize(query)
	if normalized.Error != nil {
		result.SQL = query
		metrics.IncrementValidationFailure("statement")
		return fmt.Errorf("%v: %w", normalized.Error, apperrors.ErrValidationFailed)
	}
	query = normalized.NormalizedSQL

	if s.opts.QualifySchema {
		query = sqlutil.QualifySchema(query, snapshot.Schema, snapshot.TableNames())
	}
	result.SQL = query

	if err := sqlutil.RequireReadOnly(query); err != nil {
		metrics.IncrementValidationFailure("read_only")
		s.opts.Auditor.LogWriteRejected(ctx, result.Datasource, query, err)
		return err
	}

	check := sqlutil.CheckAgainstSchema(query, snapshot.Columns(), s.opts.Validation)
	result.Validation = check
	if !check.Valid {
		for _, m := range check.Missing {
			s.logger.Info("Missing column in generated query",
				zap.String("table", m.Table),
				zap.String("column", m.Column))
			metrics.IncrementValidationFailure("missing_column")
		}
		for _, u := range check.Unknown {
			s.logger.Info("Unknown column in generated query",
				zap.String("table", u.Table),
				zap.String("column", u.Column))
			metrics.IncrementValidationFailure("unknown_column")
		}
		return &ValidationError{SQL: query, Check: check}
	}

	return nil
}

// complete sends one prompt and returns the non-empty reply.
func (s *askService) complete(ctx context.Context, prompt, system string) (string, error) {
	if llm.IsDisabled(s.llm) {
		return "", fmt.Errorf("model client disabled: %w", apperrors.ErrServiceUnavailable)
	}

	resp, err := s.llm.GenerateResponse(ctx, prompt, system, s.opts.Temperature)
	if err != nil {
		s.logger.Error("Model call failed",
			zap.String("purpose", llm.PurposeFromContext(ctx)),
			zap.Error(err))
		return "", err
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("empty model reply: %w", apperrors.ErrServiceUnavailable)
	}
	return reply, nil
}

// screenQuestion flags questions that look like SQL injection payloads.
// Flagged questions are still answered.
func (s *askService) screenQuestion(ctx context.Context, question string) bool {
	hit := sqlutil.CheckQuestionForInjection(question)
	if hit == nil {
		return false
	}
	metrics.IncrementInjectionFlag()
	s.opts.Auditor.LogInjectionFlag(ctx, question, hit.Fingerprint)
	return true
}

func (s *askService) record(session *Session, mode models.AskMode, question string, result *AskResult, err error) {
	entry := models.HistoryEntry{
		At:       time.Now(),
		Mode:     mode,
		Question: question,
	}
	if result != nil {
		entry.SQL = result.SQL
		entry.Reply = result.Reply
		entry.RowCount = result.Result.RowCount()
	}
	if err != nil {
		entry.Error = userMessage(err)
	}
	session.Append(entry)
}

// userMessage renders an error for end users and session history.
func userMessage(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, apperrors.ErrServiceUnavailable):
		return "The language model is not available."
	case errors.Is(err, apperrors.ErrQueryFailed):
		return "The query could not be executed: " + err.Error()
	default:
		return err.Error()
	}
}
