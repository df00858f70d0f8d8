package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/growvest/investment-service/internal/domain"
	"github.com/growvest/investment-service/internal/plans"
	"github.com/growvest/investment-service/internal/store"
)

type lifecycleRepoStub struct {
	store.Repository

	investment *domain.Investment

	rejectCalled   bool
	rejectParams   store.DecisionParams
	activateCalled bool
	activateParams store.ActivateParams
	activateErr    error
}

func (s *lifecycleRepoStub) FindInvestmentByID(ctx context.Context, investmentID uuid.UUID) (*domain.Investment, error) {
	if s.investment == nil || s.investment.ID != investmentID {
		return nil, store.ErrInvestmentNotFound
	}
	inv := *s.investment
	return &inv, nil
}

func (s *lifecycleRepoStub) RejectInvestment(ctx context.Context, params store.DecisionParams) (*domain.Investment, error) {
	s.rejectCalled = true
	s.rejectParams = params
	inv := *s.investment
	inv.Status = domain.InvestmentStatusRejected
	inv.Comment = params.Comment
	return &inv, nil
}

func (s *lifecycleRepoStub) ActivateInvestment(ctx context.Context, params store.ActivateParams) (*domain.Investment, error) {
	s.activateCalled = true
	s.activateParams = params
	if s.activateErr != nil {
		return nil, s.activateErr
	}
	inv := *s.investment
	inv.Status = domain.InvestmentStatusActive
	inv.Comment = params.Comment
	return &inv, nil
}

func (s *lifecycleRepoStub) FindInvestmentsByStatus(ctx context.Context, status string) ([]domain.Investment, error) {
	if s.investment != nil && s.investment.Status == status {
		return []domain.Investment{*s.investment}, nil
	}
	return []domain.Investment{}, nil
}

type publisherStub struct {
	published   []interface{}
	routingKeys []string
	err         error
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, body)
	p.routingKeys = append(p.routingKeys, routingKey)
	return nil
}

func pendingInvestment(username, plan string, amount int64) *domain.Investment {
	return &domain.Investment{
		ID:        uuid.New(),
		Username:  username,
		Plan:      plan,
		Amount:    amount,
		Status:    domain.InvestmentStatusPending,
		CreatedAt: time.Now(),
	}
}

func newTestService(repo store.Repository, publisher EventPublisher) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := plans.NewCatalog(map[string]int64{"silver": 4, "gold": 20})
	return NewService(repo, catalog, publisher, logger, false)
}

func TestDecide_ActivateCreditsLedgerWithPlanRate(t *testing.T) {
	repo := &lifecycleRepoStub{investment: pendingInvestment("alice", "gold", 500)}
	service := newTestService(repo, nil)

	decided, err := service.Decide(context.Background(), repo.investment.ID, domain.InvestmentStatusActive, "looks good")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !repo.activateCalled {
		t.Fatal("expected activation to reach the store")
	}
	if repo.activateParams.PPDIncrement != 20 {
		t.Fatalf("expected ppd increment 20 for gold plan, got %d", repo.activateParams.PPDIncrement)
	}
	if repo.activateParams.Comment != "looks good" {
		t.Fatalf("expected comment to be forwarded, got %q", repo.activateParams.Comment)
	}
	if decided.Status != domain.InvestmentStatusActive {
		t.Fatalf("expected status active, got %q", decided.Status)
	}
	if repo.rejectCalled {
		t.Fatal("did not expect rejection path for an activation")
	}
}

func TestDecide_ActivateUnknownPlanUsesZeroIncrement(t *testing.T) {
	repo := &lifecycleRepoStub{investment: pendingInvestment("alice", "diamond", 500)}
	service := newTestService(repo, nil)

	_, err := service.Decide(context.Background(), repo.investment.ID, domain.InvestmentStatusActive, "")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.activateParams.PPDIncrement != 0 {
		t.Fatalf("expected zero ppd increment for unknown plan, got %d", repo.activateParams.PPDIncrement)
	}
}

func TestDecide_RejectNeverTouchesLedger(t *testing.T) {
	repo := &lifecycleRepoStub{investment: pendingInvestment("bob", "silver", 100)}
	service := newTestService(repo, nil)

	decided, err := service.Decide(context.Background(), repo.investment.ID, domain.InvestmentStatusRejected, "insufficient proof of payment")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.activateCalled {
		t.Fatal("rejection must not reach the activation path")
	}
	if !repo.rejectCalled {
		t.Fatal("expected rejection to reach the store")
	}
	if decided.Status != domain.InvestmentStatusRejected {
		t.Fatalf("expected status rejected, got %q", decided.Status)
	}
	if decided.Comment != "insufficient proof of payment" {
		t.Fatalf("expected comment to be stored, got %q", decided.Comment)
	}
}

func TestDecide_InvalidDecisionRejected(t *testing.T) {
	repo := &lifecycleRepoStub{investment: pendingInvestment("bob", "silver", 100)}
	service := newTestService(repo, nil)

	for _, decision := range []string{"pending", "approved", "", "ACTIVE"} {
		_, err := service.Decide(context.Background(), repo.investment.ID, decision, "")
		if !errors.Is(err, ErrInvalidDecision) {
			t.Fatalf("expected ErrInvalidDecision for %q, got %v", decision, err)
		}
	}
	if repo.rejectCalled || repo.activateCalled {
		t.Fatal("invalid decisions must not reach the store")
	}
}

func TestDecide_UnknownInvestment(t *testing.T) {
	repo := &lifecycleRepoStub{investment: pendingInvestment("bob", "silver", 100)}
	service := newTestService(repo, nil)

	_, err := service.Decide(context.Background(), uuid.New(), domain.InvestmentStatusActive, "")
	if !errors.Is(err, store.ErrInvestmentNotFound) {
		t.Fatalf("expected ErrInvestmentNotFound, got %v", err)
	}
}

func TestDecide_MissingCustomerPropagates(t *testing.T) {
	repo := &lifecycleRepoStub{
		investment:  pendingInvestment("ghost", "gold", 500),
		activateErr: store.ErrCustomerNotFound,
	}
	service := newTestService(repo, nil)

	_, err := service.Decide(context.Background(), repo.investment.ID, domain.InvestmentStatusActive, "")
	if !errors.Is(err, store.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestDecide_AlreadyDecidedPropagates(t *testing.T) {
	repo := &lifecycleRepoStub{
		investment:  pendingInvestment("alice", "gold", 500),
		activateErr: store.ErrInvestmentAlreadyDecided,
	}
	service := newTestService(repo, nil)

	_, err := service.Decide(context.Background(), repo.investment.ID, domain.InvestmentStatusActive, "")
	if !errors.Is(err, store.ErrInvestmentAlreadyDecided) {
		t.Fatalf("expected ErrInvestmentAlreadyDecided, got %v", err)
	}
}

func TestDecide_PublishesDecisionEvent(t *testing.T) {
	repo := &lifecycleRepoStub{investment: pendingInvestment("alice", "gold", 500)}
	publisher := &publisherStub{}
	service := newTestService(repo, publisher)

	_, err := service.Decide(context.Background(), repo.investment.ID, domain.InvestmentStatusActive, "ok")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.published))
	}
	if publisher.routingKeys[0] != DecisionEventsRoutingKey {
		t.Fatalf("expected routing key %q, got %q", DecisionEventsRoutingKey, publisher.routingKeys[0])
	}
	event, ok := publisher.published[0].(domain.InvestmentDecidedEvent)
	if !ok {
		t.Fatalf("expected InvestmentDecidedEvent, got %T", publisher.published[0])
	}
	if event.Status != domain.InvestmentStatusActive || event.Username != "alice" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
}

func TestDecide_PublishFailureDoesNotFailDecision(t *testing.T) {
	repo := &lifecycleRepoStub{investment: pendingInvestment("alice", "gold", 500)}
	publisher := &publisherStub{err: errors.New("broker down")}
	service := newTestService(repo, publisher)

	decided, err := service.Decide(context.Background(), repo.investment.ID, domain.InvestmentStatusActive, "")
	if err != nil {
		t.Fatalf("expected decision to succeed despite publish failure, got %v", err)
	}
	if decided.Status != domain.InvestmentStatusActive {
		t.Fatalf("expected status active, got %q", decided.Status)
	}
}

func TestPlanRates_ReflectsCatalog(t *testing.T) {
	service := newTestService(&lifecycleRepoStub{}, nil)

	rates := service.PlanRates()
	if len(rates) != 2 {
		t.Fatalf("expected two plans, got %v", rates)
	}
	if rates["silver"] != 4 || rates["gold"] != 20 {
		t.Fatalf("unexpected rates: %v", rates)
	}
}

func TestListInvestmentsByStatus_UnknownStatus(t *testing.T) {
	repo := &lifecycleRepoStub{}
	service := newTestService(repo, nil)

	_, err := service.ListInvestmentsByStatus(context.Background(), "approved")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestListInvestmentsByStatus_EmptyResultIsValid(t *testing.T) {
	repo := &lifecycleRepoStub{investment: pendingInvestment("alice", "gold", 500)}
	service := newTestService(repo, nil)

	investments, err := service.ListInvestmentsByStatus(context.Background(), domain.InvestmentStatusRejected)
	if err != nil {
		t.Fatalf("expected nil error for a known status with no matches, got %v", err)
	}
	if len(investments) != 0 {
		t.Fatalf("expected empty result, got %d investments", len(investments))
	}
}
