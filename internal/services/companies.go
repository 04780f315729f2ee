package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"gopkg.in/yaml.v3"

	"stocks-api/internal/models"
)

const companiesCollection = "companies"

// DefaultCompanies is the built-in NSE company list served when no other
// source is configured.
var DefaultCompanies = []models.Company{
	{Symbol: "RELIANCE.NS", Name: "Reliance Industries"},
	{Symbol: "TCS.NS", Name: "TCS"},
	{Symbol: "INFY.NS", Name: "Infosys"},
	{Symbol: "HDFCBANK.NS", Name: "HDFC Bank"},
	{Symbol: "ICICIBANK.NS", Name: "ICICI Bank"},
	{Symbol: "ITC.NS", Name: "ITC"},
	{Symbol: "LT.NS", Name: "Larsen & Toubro"},
	{Symbol: "BHARTIARTL.NS", Name: "Bharti Airtel"},
	{Symbol: "SBIN.NS", Name: "State Bank of India"},
	{Symbol: "KOTAKBANK.NS", Name: "Kotak Mahindra Bank"},
	{Symbol: "ASIANPAINT.NS", Name: "Asian Paints"},
}

// CompanyCatalog serves the company list from Firestore when configured,
// otherwise from a YAML file or the built-in default.
type CompanyCatalog struct {
	firestoreClient *firestore.Client
	fallback        []models.Company
	log             zerolog.Logger
}

type companiesFile struct {
	Companies []models.Company `yaml:"companies"`
}

// NewCompanyCatalog builds the catalog. A Firestore client that cannot be
// created is logged and skipped; an unreadable companies file is an error.
func NewCompanyCatalog(ctx context.Context, firestoreProject, companiesPath string, log zerolog.Logger) (*CompanyCatalog, error) {
	c := &CompanyCatalog{
		fallback: DefaultCompanies,
		log:      log.With().Str("component", "company_catalog").Logger(),
	}

	if companiesPath != "" {
		companies, err := LoadCompaniesFile(companiesPath)
		if err != nil {
			return nil, err
		}
		c.fallback = companies
	}

	if firestoreProject != "" {
		client, err := firestore.NewClient(ctx, firestoreProject)
		if err != nil {
			c.log.Warn().Err(err).Str("project", firestoreProject).Msg("Failed to initialize Firestore, using static company list")
		} else {
			c.firestoreClient = client
		}
	}

	return c, nil
}

// LoadCompaniesFile reads a YAML document of the form `companies: [{symbol, name}]`.
func LoadCompaniesFile(path string) ([]models.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read companies file: %w", err)
	}

	var doc companiesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse companies file: %w", err)
	}

	companies := make([]models.Company, 0, len(doc.Companies))
	for _, company := range doc.Companies {
		if company.Symbol == "" {
			continue
		}
		if company.Name == "" {
			company.Name = company.Symbol
		}
		companies = append(companies, company)
	}
	if len(companies) == 0 {
		return nil, fmt.Errorf("companies file %s lists no companies", path)
	}
	return companies, nil
}

// List returns the available companies. Firestore failures fall back to the
// static list.
func (c *CompanyCatalog) List(ctx context.Context) []models.Company {
	if c.firestoreClient != nil {
		companies, err := c.listFirestore(ctx)
		if err == nil && len(companies) > 0 {
			return companies
		}
		if err != nil {
			c.log.Warn().Err(err).Msg("Failed to read companies from Firestore")
		}
	}

	out := make([]models.Company, len(c.fallback))
	copy(out, c.fallback)
	return out
}

func (c *CompanyCatalog) listFirestore(ctx context.Context) ([]models.Company, error) {
	iter := c.firestoreClient.Collection(companiesCollection).OrderBy("symbol", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var companies []models.Company
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var company models.Company
		if err := doc.DataTo(&company); err != nil {
			c.log.Warn().Err(err).Str("doc", doc.Ref.ID).Msg("Skipping malformed company document")
			continue
		}
		if company.Symbol == "" {
			continue
		}
		companies = append(companies, company)
	}
	return companies, nil
}

// Close closes the Firestore client
func (c *CompanyCatalog) Close() error {
	if c.firestoreClient != nil {
		return c.firestoreClient.Close()
	}
	return nil
}
