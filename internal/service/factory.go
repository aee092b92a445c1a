package service

import (
	"planforge.app/anvil/common/graph"
	"planforge.app/anvil/common/llm"
	"planforge.app/anvil/common/search"
	"planforge.app/anvil/core/config"
	"planforge.app/anvil/internal/drafter"
	"planforge.app/anvil/internal/queue"
	"planforge.app/anvil/internal/store"
)

// Services wires stores, AI collaborators and infrastructure clients into
// the service layer. Accessors construct services on demand; all of them
// are cheap stateless structs over the shared dependencies.
type Services struct {
	stores        *store.Stores
	txRunner      TxRunner
	workOSCfg     config.WorkOSConfig
	drafterLLM    llm.Client
	comparatorLLM llm.Client
	producer      queue.Producer
	searchClient  *search.Client
	graphClient   graph.Client
}

func NewServices(
	stores *store.Stores,
	txRunner TxRunner,
	workOSCfg config.WorkOSConfig,
	drafterLLM llm.Client,
	comparatorLLM llm.Client,
	producer queue.Producer,
	searchClient *search.Client,
	graphClient graph.Client,
) *Services {
	return &Services{
		stores:        stores,
		txRunner:      txRunner,
		workOSCfg:     workOSCfg,
		drafterLLM:    drafterLLM,
		comparatorLLM: comparatorLLM,
		producer:      producer,
		searchClient:  searchClient,
		graphClient:   graphClient,
	}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Users(), s.stores.Sessions(), s.workOSCfg)
}

func (s *Services) Projects() ProjectService {
	return NewProjectService(s.stores.Projects())
}

func (s *Services) Documents() DocumentService {
	return NewDocumentService(s.stores.Documents(), s.stores.Projects(), s.Trace())
}

func (s *Services) Plans() PlanService {
	return NewPlanService(s.stores.Plans(), s.stores.Projects(), s.stores.Documents(), drafter.NewPlanDrafter(s.drafterLLM))
}

func (s *Services) Checklists() ChecklistService {
	return NewChecklistService(
		s.stores.Checklists(),
		s.stores.Projects(),
		s.stores.Documents(),
		drafter.NewChecklistGenerator(s.drafterLLM),
		s.Search(),
		s.Trace(),
	)
}

func (s *Services) Quotes() QuoteService {
	return NewQuoteService(s.stores.Quotes(), s.stores.Projects(), drafter.NewAssumptionExtractor(s.comparatorLLM), s.Trace())
}

func (s *Services) Reconcile() ReconcileService {
	return NewReconcileService(drafter.NewComparator(s.comparatorLLM))
}

func (s *Services) Sessions() SessionService {
	return NewSessionService(
		s.stores.Reconciliations(),
		s.stores.Checklists(),
		s.stores.Quotes(),
		s.stores.Publications(),
		drafter.NewComparator(s.comparatorLLM),
		s.producer,
		s.txRunner,
		s.Search(),
		s.Trace(),
	)
}

func (s *Services) Search() SearchService {
	return NewSearchService(s.searchClient)
}

func (s *Services) Trace() TraceService {
	return NewTraceService(s.graphClient)
}
