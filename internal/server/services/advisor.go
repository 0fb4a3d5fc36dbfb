package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mailadvisor/backend/internal/common"
	"github.com/mailadvisor/backend/internal/logging"
)

// Completer is the external text-generation collaborator. The advisor only
// needs the rewritten text and the token count the call consumed.
type Completer interface {
	Complete(ctx context.Context, instructions, input string) (string, int64, error)
}

// AdviseRequest carries the draft text and the profile fields that shape the
// rewrite instructions.
type AdviseRequest struct {
	Text       string
	MyPosition string
	MyJob      string
	ToneLevel  string
	MyGoal     string
	Audience   string
}

// AdviseResult is the rewritten text plus the tokens charged for it.
type AdviseResult struct {
	Output string
	Tokens int64
}

// AdvisorService runs the metered rewrite capability: call the provider,
// then charge the consumed tokens through the same ledger decrement as any
// other consumption.
type AdvisorService struct {
	completer Completer
	accounts  *AccountService
	logger    logging.Logger
}

// NewAdvisorService constructs an AdvisorService.
func NewAdvisorService(completer Completer, accounts *AccountService, logger logging.Logger) *AdvisorService {
	return &AdvisorService{
		completer: completer,
		accounts:  accounts,
		logger:    logger.With("module", "advisor"),
	}
}

// buildInstructions renders the profile fields into the rewrite prompt.
// Unknown fields degrade to "모름" rather than being omitted, so the prompt
// shape stays stable.
func buildInstructions(req *AdviseRequest) string {
	orUnknown := func(s string) string {
		if s == "" {
			return "모름"
		}
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "my_position: %s,\n", orUnknown(req.MyPosition))
	fmt.Fprintf(&b, "my_job: %s,\n", orUnknown(req.MyJob))
	fmt.Fprintf(&b, "tone_level: %s,\n", orUnknown(req.ToneLevel))
	b.WriteString("guide: 너는 최고의 메일 교정 도우미다. 원문 의미/방향성 유지. 접두사/머리말/설명/코멘트 없이, 교정된 문장만 그대로 출력,\n")
	b.WriteString("task_type: 메일 교정,\n")
	if req.MyGoal == "" {
		b.WriteString("goal: 메일 교정,\n")
	} else {
		fmt.Fprintf(&b, "goal: %s,\n", req.MyGoal)
	}
	fmt.Fprintf(&b, "audience: %s", orUnknown(req.Audience))
	return b.String()
}

// Advise rewrites the draft and debits the account by the tokens the
// provider reports. The debit uses the atomic zero-floored decrement, so a
// spent-down account simply bottoms out at zero.
func (s *AdvisorService) Advise(ctx context.Context, username string, req *AdviseRequest) (*AdviseResult, error) {
	output, tokens, err := s.completer.Complete(ctx, buildInstructions(req), req.Text)
	if err != nil {
		s.logger.Error(ctx, "rewrite failed", "username", username, "error", err.Error())
		return nil, common.ErrorInternal
	}

	if err := s.accounts.DecreaseBalance(ctx, username, tokens); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	s.logger.Info(ctx, "rewrite served", "username", username, "tokens", tokens)

	return &AdviseResult{Output: output, Tokens: tokens}, nil
}
