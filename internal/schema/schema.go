// Package schema defines the target schema registry: the fixed, enumerable
// set of destination fields that uploaded columns are mapped onto.
//
// The registry is pure data. Adding a field or extending a keyword list
// requires no change to the matcher; the matcher only iterates what the
// registry exposes. The default registry covers the eleven-field CRM export
// schema (accounts, opportunities, periods, revenue measures, sales stage).
package schema

import "fmt"

// FieldID is the stable key of a target field
type FieldID string

const (
	FieldAccountName      FieldID = "account_name"
	FieldOpportunityID    FieldID = "opportunity_id"
	FieldOpportunityName  FieldID = "opportunity_name"
	FieldMasterPeriod     FieldID = "master_period"
	FieldCloseDate        FieldID = "close_date"
	FieldIndustryVertical FieldID = "industry_vertical"
	FieldProductName      FieldID = "product_name"
	FieldRevenueTCV       FieldID = "revenue_tcv_usd"
	FieldIYR              FieldID = "iyr_usd"
	FieldMargin           FieldID = "margin_usd"
	FieldSalesStage       FieldID = "sales_stage"
)

// TargetField is the immutable definition of one destination field
type TargetField struct {
	ID          FieldID  `json:"id"`
	DisplayName string   `json:"display_name"`
	Required    bool     `json:"required"`
	// ExactAliases are matched case-insensitively against the raw header,
	// ignoring only leading/trailing whitespace. Order is significant.
	ExactAliases []string `json:"exact_aliases"`
	// Keywords drive the normalized/prefix/suffix/contains/partial tiers.
	Keywords []string `json:"keywords"`
}

// Registry holds the target field definitions in a stable order
type Registry struct {
	fields []TargetField
	byID   map[FieldID]*TargetField
}

// NewRegistry builds a registry from field definitions
func NewRegistry(fields []TargetField) (*Registry, error) {
	byID := make(map[FieldID]*TargetField, len(fields))
	for i := range fields {
		if _, exists := byID[fields[i].ID]; exists {
			return nil, fmt.Errorf("duplicate target field id: %s", fields[i].ID)
		}
		byID[fields[i].ID] = &fields[i]
	}
	return &Registry{fields: fields, byID: byID}, nil
}

// Fields returns all target fields in definition order
func (r *Registry) Fields() []TargetField {
	return r.fields
}

// Field returns the definition for a field id
func (r *Registry) Field(id FieldID) (*TargetField, bool) {
	f, ok := r.byID[id]
	return f, ok
}

// Has reports whether the registry defines the given field id
func (r *Registry) Has(id FieldID) bool {
	_, ok := r.byID[id]
	return ok
}

// RequiredIDs returns the ids of all fields marked required
func (r *Registry) RequiredIDs() []FieldID {
	var ids []FieldID
	for _, f := range r.fields {
		if f.Required {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// DefaultRegistry returns the built-in CRM export schema
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultFields())
	if err != nil {
		// The built-in definitions have unique ids; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}

func defaultFields() []TargetField {
	return []TargetField{
		{
			ID:          FieldAccountName,
			DisplayName: "Account Name",
			ExactAliases: []string{
				"Account Name", "account name", "Account_Name", "account_name", "ACCOUNT NAME",
			},
			Keywords: []string{
				"account name", "accountname", "account_name", "account",
				"customer name", "customer", "client name", "client",
				"company name", "company",
			},
		},
		{
			ID:          FieldOpportunityID,
			DisplayName: "Opportunity ID",
			ExactAliases: []string{
				"Opportunity ID", "opportunity id", "Opportunity_ID", "opportunity_id",
				"OPPORTUNITY ID", "Opp ID", "OppID",
			},
			Keywords: []string{
				"opportunity id", "opportunityid", "opportunity_id",
				"opp id", "oppid", "opp_id",
				"deal id", "dealid", "deal_id",
				"opportunity number", "opp number",
			},
		},
		{
			ID:          FieldOpportunityName,
			DisplayName: "Opportunity Name",
			ExactAliases: []string{
				"Opportunity Name", "opportunity name", "Opportunity_Name", "opportunity_name",
				"OPPORTUNITY NAME", "Opp Name",
			},
			Keywords: []string{
				"opportunity name", "opportunityname", "opportunity_name",
				"opp name", "oppname", "opp_name",
				"deal name", "dealname", "deal_name", "opportunity",
			},
		},
		{
			ID:          FieldMasterPeriod,
			DisplayName: "Master Period",
			Required:    true,
			ExactAliases: []string{
				"Master Period", "master period", "Master_Period", "master_period",
				"MASTER PERIOD", "Period", "Fiscal Period",
			},
			Keywords: []string{
				"master period", "masterperiod", "master_period", "period",
				"fiscal period", "fiscalperiod", "fiscal_period",
				"reporting period", "quarter", "fiscal quarter",
			},
		},
		{
			ID:          FieldCloseDate,
			DisplayName: "Close Date",
			ExactAliases: []string{
				"Close Date", "close date", "Close_Date", "close_date",
				"CLOSE DATE", "Closing Date", "Expected Close Date",
			},
			Keywords: []string{
				"close date", "closedate", "close_date",
				"closing date", "closingdate", "closing_date",
				"expected close", "expected close date", "date",
			},
		},
		{
			ID:          FieldIndustryVertical,
			DisplayName: "Industry Vertical",
			ExactAliases: []string{
				"Industry Vertical", "industry vertical", "Industry_Vertical", "industry_vertical",
				"INDUSTRY VERTICAL", "Industry", "Vertical",
			},
			Keywords: []string{
				"industry vertical", "industryvertical", "industry_vertical",
				"industry", "vertical", "sector",
				"industry segment", "business segment",
			},
		},
		{
			ID:          FieldProductName,
			DisplayName: "Product Name",
			ExactAliases: []string{
				"Product Name", "product name", "Product_Name", "product_name",
				"PRODUCT NAME", "Product",
			},
			Keywords: []string{
				"product name", "productname", "product_name", "product",
				"solution name", "solution", "service name", "service",
			},
		},
		{
			ID:          FieldRevenueTCV,
			DisplayName: "Revenue TCV USD",
			Required:    true,
			ExactAliases: []string{
				"Revenue TCV USD", "revenue tcv usd", "Revenue_TCV_USD", "revenue_tcv_usd",
				"REVENUE TCV USD", "TCV USD", "tcv usd", "Tcv Usd", "TCV", "tcv", "Revenue TCV",
			},
			Keywords: []string{
				"revenue tcv usd", "revenuetcvusd", "revenue_tcv_usd",
				"tcv usd", "tcvusd", "tcv_usd", "tcv",
				"total contract value", "revenue", "contract value",
			},
		},
		{
			ID:          FieldIYR,
			DisplayName: "IYR USD",
			ExactAliases: []string{
				"IYR USD", "iyr usd", "IYR_USD", "iyr_usd", "IYR",
				"In Year Revenue", "First Year Revenue",
			},
			Keywords: []string{
				"iyr usd", "iyrusd", "iyr_usd", "iyr",
				"in year revenue", "inyearrevenue", "in_year_revenue",
				"first year revenue", "year 1 revenue",
			},
		},
		{
			ID:          FieldMargin,
			DisplayName: "Margin USD",
			ExactAliases: []string{
				"Margin USD", "margin usd", "Margin_USD", "margin_usd",
				"MARGIN USD", "Margin", "Gross Margin",
			},
			Keywords: []string{
				"margin usd", "marginusd", "margin_usd", "margin",
				"gross margin", "grossmargin", "gross_margin", "profit", "gm",
			},
		},
		{
			ID:          FieldSalesStage,
			DisplayName: "Sales Stage",
			ExactAliases: []string{
				"Sales Stage", "sales stage", "Sales_Stage", "sales_stage",
				"SALES STAGE", "Stage", "Opportunity Stage", "Deal Stage", "Pipeline Stage",
			},
			Keywords: []string{
				"sales stage", "salesstage", "sales_stage", "stage",
				"opportunity stage", "opportunitystage", "opportunity_stage",
				"deal stage", "dealstage", "deal_stage",
				"pipeline stage", "status",
			},
		},
	}
}
