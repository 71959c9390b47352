package term

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
)

var (
	// errors
	ErrNotFound = errors.New("term not found")
)

// switchRetries bounds the retry loop around the active-term batch write
// before the failure is surfaced for the caller to retry or abandon.
const switchRetries = 3

type (
	Repository interface {
		CreateTerm(ctx context.Context, t Term) (Term, error)
		GetTermByID(ctx context.Context, id string) (Term, error)
		QueryAllTerms(ctx context.Context) ([]Term, error)
		// ActiveTerms returns every term currently marked active. The store
		// cannot structurally prevent more than one; callers decide.
		ActiveTerms(ctx context.Context) ([]Term, error)
		// SwitchActive closes every currently-active term and activates id
		// as one all-or-nothing batched write: either all touched documents
		// change or none do. The store decides which terms are active at
		// commit time, so concurrent switches serialize instead of both
		// closing a stale reading of the active term.
		SwitchActive(ctx context.Context, id string) error
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) Create(ctx context.Context, nt NewTerm) (Term, error) {
	t := Term{
		Name:      nt.Name,
		Status:    StatusClosed,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateTerm(ctx, t)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Term, error) {
	return svc.repo.GetTermByID(ctx, id)
}

// List returns all terms, active first, the rest ordered by creation time
// descending for determinism.
func (svc *Service) List(ctx context.Context) ([]Term, error) {
	terms, err := svc.repo.QueryAllTerms(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].IsActive() != terms[j].IsActive() {
			return terms[i].IsActive()
		}
		return terms[i].CreatedAt.After(terms[j].CreatedAt)
	})
	return terms, nil
}

// Active returns the currently active term. No active term is a valid,
// expected state and reports ok=false rather than an error. More than one
// match should be unreachable given SetActive's atomic switch; it is logged
// as a data-integrity warning and resolved by picking the most recently
// created match.
func (svc *Service) Active(ctx context.Context) (Term, bool, error) {
	actives, err := svc.repo.ActiveTerms(ctx)
	if err != nil {
		return Term{}, false, err
	}
	switch len(actives) {
	case 0:
		return Term{}, false, nil
	case 1:
		return actives[0], true, nil
	}

	sort.Slice(actives, func(i, j int) bool {
		return actives[i].CreatedAt.After(actives[j].CreatedAt)
	})
	if svc.logger != nil {
		svc.logger.Warn("data integrity: more than one active term; picking most recent", actives[0])
	}
	return actives[0], true, nil
}

// SetActive atomically closes the previously active term (if any) and
// activates the target. The switch reads and writes the active set inside
// the repository batch, so interleaved calls cannot both close the same
// stale active term and leave two actives behind. No partial state is
// observable: when the batch cannot commit, no term changed and the error
// is retryable. Activating the already-active term is a no-op.
func (svc *Service) SetActive(ctx context.Context, id string) error {
	for attempt := 1; ; attempt++ {
		err := svc.repo.SwitchActive(ctx, id)
		if err == nil {
			return nil
		}
		if !core.IsTransientError(err) || attempt >= switchRetries {
			return err
		}
		if svc.logger != nil {
			svc.logger.Warn("retrying active-term switch", id, err)
		}
	}
}
