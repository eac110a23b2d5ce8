package application

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-switchboard/internal/domain"
)

var queryValidator = validator.New()

// QueryFile is the YAML schema for external query fixture files.
type QueryFile struct {
	// Queries lists the labelled query cases in evaluation order.
	Queries []domain.QueryCase `yaml:"queries" validate:"required,min=1,dive"`
}

// LoadQueriesFromFile reads labelled query cases from a YAML file.
// Unknown fields are rejected so fixture typos surface immediately.
func LoadQueriesFromFile(path string) ([]domain.QueryCase, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file QueryFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}

	if err := queryValidator.Struct(file); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	return file.Queries, nil
}

// LimitQueries truncates the case list to the first limit entries.
// Non-positive limits and limits past the end return the list unchanged.
func LimitQueries(cases []domain.QueryCase, limit int) []domain.QueryCase {
	if limit <= 0 || limit >= len(cases) {
		return cases
	}
	return cases[:limit]
}

// DefaultQueryCases returns the built-in evaluation fixtures: labelled
// queries spanning every routable domain, ten domains with four phrasings
// each plus one probe per remaining domain. Some phrasings are deliberately
// ambiguous across domains ("Enroll in training program" belongs to hr,
// "Enroll in training" to learning_development) to expose routing-quality
// differences between topologies.
func DefaultQueryCases() []domain.QueryCase {
	return []domain.QueryCase{
		{Text: "I need to book a flight to Tokyo", ExpectedDomain: "travel"},
		{Text: "Find me a hotel in Paris", ExpectedDomain: "travel"},
		{Text: "Rent a car for next week", ExpectedDomain: "travel"},
		{Text: "Plan a vacation to Hawaii", ExpectedDomain: "travel"},

		{Text: "Check my bank balance", ExpectedDomain: "finance"},
		{Text: "I want to invest in stocks", ExpectedDomain: "finance"},
		{Text: "Report an expense", ExpectedDomain: "finance"},
		{Text: "Show my financial report", ExpectedDomain: "finance"},

		{Text: "Request time off for next week", ExpectedDomain: "hr"},
		{Text: "Check my benefits", ExpectedDomain: "hr"},
		{Text: "When do I get paid?", ExpectedDomain: "hr"},
		{Text: "Enroll in training program", ExpectedDomain: "hr"},

		{Text: "Reset my password", ExpectedDomain: "it_support"},
		{Text: "My VPN is not working", ExpectedDomain: "it_support"},
		{Text: "Install new software", ExpectedDomain: "it_support"},
		{Text: "Connect to WiFi", ExpectedDomain: "it_support"},

		{Text: "Where is my order?", ExpectedDomain: "customer_service"},
		{Text: "I want to return this item", ExpectedDomain: "customer_service"},
		{Text: "File a complaint", ExpectedDomain: "customer_service"},
		{Text: "Product information", ExpectedDomain: "customer_service"},

		{Text: "I want to buy your product", ExpectedDomain: "sales"},
		{Text: "What's the price?", ExpectedDomain: "sales"},
		{Text: "Request a quote", ExpectedDomain: "sales"},
		{Text: "Schedule a demo", ExpectedDomain: "sales"},

		{Text: "Create a marketing campaign", ExpectedDomain: "marketing"},
		{Text: "Post on social media", ExpectedDomain: "marketing"},
		{Text: "Show marketing analytics", ExpectedDomain: "marketing"},
		{Text: "Review brand guidelines", ExpectedDomain: "marketing"},

		{Text: "Review this contract", ExpectedDomain: "legal"},
		{Text: "Compliance question", ExpectedDomain: "legal"},
		{Text: "IP registration", ExpectedDomain: "legal"},
		{Text: "Legal advice needed", ExpectedDomain: "legal"},

		{Text: "Review my code", ExpectedDomain: "engineering"},
		{Text: "Deploy to production", ExpectedDomain: "engineering"},
		{Text: "Fix this bug", ExpectedDomain: "engineering"},
		{Text: "API documentation", ExpectedDomain: "engineering"},

		{Text: "Check inventory levels", ExpectedDomain: "operations"},
		{Text: "Track shipment", ExpectedDomain: "operations"},
		{Text: "Vendor management", ExpectedDomain: "operations"},
		{Text: "Optimize processes", ExpectedDomain: "operations"},

		{Text: "Project status update", ExpectedDomain: "project_management"},
		{Text: "Design a new feature", ExpectedDomain: "design"},
		{Text: "Send company announcement", ExpectedDomain: "communications"},
		{Text: "Book a meeting room", ExpectedDomain: "facilities"},
		{Text: "Generate sales report", ExpectedDomain: "data_analytics"},
		{Text: "Report security incident", ExpectedDomain: "security"},
		{Text: "Enroll in training", ExpectedDomain: "learning_development"},
		{Text: "Carbon footprint report", ExpectedDomain: "sustainability"},
		{Text: "Quality testing request", ExpectedDomain: "quality_assurance"},
		{Text: "Risk assessment", ExpectedDomain: "risk_management"},
		{Text: "Pay my bill", ExpectedDomain: "billing"},
		{Text: "Plan an event", ExpectedDomain: "events"},
		{Text: "Write a blog post", ExpectedDomain: "content"},
		{Text: "Market research", ExpectedDomain: "research"},
		{Text: "Tax planning", ExpectedDomain: "tax"},
		{Text: "Investor information", ExpectedDomain: "investor_relations"},
		{Text: "M&A opportunity", ExpectedDomain: "corporate_development"},
		{Text: "Employee engagement", ExpectedDomain: "workplace"},
		{Text: "Revenue forecast", ExpectedDomain: "revenue_operations"},
	}
}
