package chatctx

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/yirikai/yirikai/internal/metrics"
	appErr "github.com/yirikai/yirikai/internal/pkg/errors"
)

// Turn is the result of one answered question.
type Turn struct {
	Answer    string
	Mode      Mode
	Tokens    int
	Threshold int
}

type DocumentRef struct {
	ID    string
	Title string
}

// Orchestrator runs a single chat turn: select the mode, assemble the context
// and ask the model. It keeps no state between turns.
type Orchestrator struct {
	selector  *Selector
	assembler *Assembler
	answerer  Answerer
	metrics   *metrics.Metrics
}

func NewOrchestrator(selector *Selector, assembler *Assembler, answerer Answerer, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		selector:  selector,
		assembler: assembler,
		answerer:  answerer,
		metrics:   m,
	}
}

func (o *Orchestrator) Ask(ctx context.Context, documentID, question, model string) (*Turn, error) {
	decision, err := o.selector.SelectMode(ctx, documentID, model)
	if err != nil {
		return nil, err
	}
	contextText, mode, err := o.assembler.BuildContext(ctx, documentID, decision.Mode, question)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("context selected",
		zap.String("mode", mode.String()),
		zap.Int("tokens", decision.Tokens),
		zap.Int("threshold", decision.Threshold),
		zap.String("model", model),
		zap.String("document_id", documentID),
	)
	o.metrics.ObserveDecision("single", model, mode.String(), decision.Tokens)
	if mode == ModeEmpty {
		return nil, fmt.Errorf("document %s: %w", documentID, appErr.ErrEmptyDocument)
	}
	start := time.Now()
	answer, err := o.answerer.GenerateAnswer(ctx, question, contextText, model)
	o.metrics.ObserveAnswer(model, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Turn{Answer: answer, Mode: mode, Tokens: decision.Tokens, Threshold: decision.Threshold}, nil
}

// AskMulti answers over several documents. Contexts are combined in the order
// of docs, tagged with their titles and cut to the model's character budget.
func (o *Orchestrator) AskMulti(ctx context.Context, docs []DocumentRef, question, model string) (*Turn, error) {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	decision, err := o.selector.SelectModeMulti(ctx, ids, model)
	if err != nil {
		return nil, err
	}
	contexts, mode, err := o.assembler.BuildContextMulti(ctx, ids, decision.Mode, question)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("context selected",
		zap.String("mode", mode.String()),
		zap.Int("tokens", decision.Tokens),
		zap.Int("threshold", decision.Threshold),
		zap.String("model", model),
		zap.Strings("document_ids", ids),
	)
	o.metrics.ObserveDecision("multi", model, mode.String(), decision.Tokens)
	if mode == ModeEmpty {
		return nil, fmt.Errorf("documents %v: %w", ids, appErr.ErrEmptyDocument)
	}
	sources := make([]Source, 0, len(contexts))
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		text, ok := contexts[d.ID]
		if !ok {
			continue
		}
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		sources = append(sources, Source{Title: d.Title, Context: text})
	}
	combined := Truncate(CombineSources(sources), CharCap(model))
	start := time.Now()
	answer, err := o.answerer.GenerateAnswerMultiDoc(ctx, question, combined, model)
	o.metrics.ObserveAnswer(model, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Turn{Answer: answer, Mode: mode, Tokens: decision.Tokens, Threshold: decision.Threshold}, nil
}
