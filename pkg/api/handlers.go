package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"warden/pkg/auditlog"
	"warden/pkg/domain"
	"warden/pkg/evaluator"
	"warden/pkg/nlquery"
	"warden/pkg/rules"
)

// IngestionService is the subset of IngestionPipeline the HTTP layer
// needs.
type IngestionService interface {
	Ingest(ctx context.Context, policyText, firmName string) (rules.RulesBundle, error)
}

// EmployeeDirectory is the subset of DemoEmployeeDirectory the HTTP
// layer needs.
type EmployeeDirectory interface {
	Lookup(id string) (domain.Employee, error)
}

// Handlers wires warden's HTTP surface to the underlying capabilities
// (spec.md §6).
type Handlers struct {
	Ingestion  IngestionService
	Evaluator  *evaluator.ComplianceEvaluator
	Employees  EmployeeDirectory
	Extractor  nlquery.Extractor
	AuditLog   auditlog.Logger
	SecurityOf func(ticker string) domain.Security
}

// NewHandlers builds a Handlers with a nil SecurityOf. SecurityOf, when
// set, resolves a ticker symbol into the Security payload a rule
// expects; while it is nil, ComplianceCheck uses a bare Security
// carrying only the ticker and requested action.
func NewHandlers(ingestion IngestionService, eval *evaluator.ComplianceEvaluator, employees EmployeeDirectory, extractor nlquery.Extractor, auditLog auditlog.Logger) *Handlers {
	return &Handlers{
		Ingestion: ingestion,
		Evaluator: eval,
		Employees: employees,
		Extractor: extractor,
		AuditLog:  auditLog,
	}
}

type ingestRequest struct {
	FirmName   string `json:"firm_name"`
	PolicyText string `json:"policy_text"`
}

type ingestedRuleView struct {
	RuleName    string `json:"rule_name"`
	Description string `json:"description"`
	Attempts    int    `json:"attempts"`
	Validated   bool   `json:"validated"`
}

type ingestResponse struct {
	Status          string              `json:"status"`
	FirmName        string              `json:"firm_name"`
	RulesDeployed   int                 `json:"rules_deployed"`
	TotalIterations int                 `json:"total_iterations"`
	Rules           []ingestedRuleView  `json:"rules"`
}

// IngestPolicy handles POST /api/policies/ingest.
func (h *Handlers) IngestPolicy(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, r, "INVALID_REQUEST", "malformed JSON body")
		return
	}

	firmName := strings.TrimSpace(req.FirmName)
	policyText := strings.TrimSpace(req.PolicyText)
	if firmName == "" || policyText == "" {
		WriteBadRequest(w, r, "INVALID_REQUEST", "firm_name and policy_text are required")
		return
	}

	bundle, err := h.Ingestion.Ingest(r.Context(), policyText, firmName)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}

	views := make([]ingestedRuleView, 0, len(bundle.Rules))
	for _, rule := range bundle.Rules {
		views = append(views, ingestedRuleView{
			RuleName:    rule.RuleName,
			Description: rule.Description,
			Attempts:    len(rule.ValidationHistory),
			Validated:   rule.Passed(),
		})
	}

	if h.AuditLog != nil {
		_ = h.AuditLog.Record(r.Context(), auditlog.EventIngestion, firmName, "ingest_policy", map[string]interface{}{
			"rules_deployed": len(bundle.Rules),
		})
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:          "SUCCESS",
		FirmName:        bundle.FirmName,
		RulesDeployed:   len(bundle.Rules),
		TotalIterations: bundle.TotalIterations,
		Rules:           views,
	})
}

type checkRequest struct {
	FirmName   string `json:"firm_name"`
	EmployeeID string `json:"employee_id"`
	Query      string `json:"query"`
	TradeDate  string `json:"trade_date"`
}

type checkResponse struct {
	Status      string                       `json:"status"`
	FirmName    string                       `json:"firm_name"`
	EmployeeID  string                       `json:"employee_id"`
	ParsedQuery nlquery.ParsedQuery          `json:"parsed_query"`
	Compliance  evaluator.ComplianceVerdict  `json:"compliance"`
}

// ComplianceCheck handles POST /api/compliance/check.
func (h *Handlers) ComplianceCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, r, "INVALID_REQUEST", "malformed JSON body")
		return
	}

	firmName := strings.TrimSpace(req.FirmName)
	employeeID := strings.TrimSpace(req.EmployeeID)
	query := strings.TrimSpace(req.Query)
	if firmName == "" || employeeID == "" || query == "" {
		WriteBadRequest(w, r, "INVALID_REQUEST", "firm_name, employee_id, and query are required")
		return
	}

	employee, err := h.Employees.Lookup(employeeID)
	if err != nil {
		WriteNotFound(w, r, "EMPLOYEE_NOT_FOUND", "unknown employee_id")
		return
	}

	parsed, err := h.Extractor.Extract(query)
	if err != nil {
		WriteBadRequest(w, r, "PARSE_ERROR", err.Error())
		return
	}

	tradeDate := strings.TrimSpace(req.TradeDate)
	if tradeDate == "" {
		tradeDate = parsed.TradeDate
	}
	if tradeDate == "" {
		tradeDate = nlquery.DefaultTradeDate()
	}
	parsed.TradeDate = tradeDate

	security := domain.Security{Ticker: parsed.Ticker, RequestedAction: parsed.Action}
	if h.SecurityOf != nil {
		security = h.SecurityOf(parsed.Ticker)
		security.RequestedAction = parsed.Action
	}

	verdict, err := h.Evaluator.Evaluate(r.Context(), firmName, employee, security, tradeDate)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}

	if h.AuditLog != nil {
		_ = h.AuditLog.Record(r.Context(), auditlog.EventCompliance, firmName, "compliance_check", map[string]interface{}{
			"employee_id": employeeID,
			"allowed":     verdict.Allowed,
		})
	}

	writeJSON(w, http.StatusOK, checkResponse{
		Status:      "SUCCESS",
		FirmName:    firmName,
		EmployeeID:  employeeID,
		ParsedQuery: parsed,
		Compliance:  verdict,
	})
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
