package domain

import "time"

// Statement is one normalized statement-of-reasons record, foreign-keyed to
// the ingestion run that loaded it. Column names match the source dump's
// field names so normalized rows can be inserted by column map.
type Statement struct {
	UUID string `gorm:"column:uuid;type:varchar(36);primaryKey" json:"uuid"`

	DecisionVisibility           *string    `gorm:"column:decision_visibility;type:jsonb" json:"decision_visibility,omitempty"`
	DecisionVisibilityOther      *string    `gorm:"column:decision_visibility_other;type:text" json:"decision_visibility_other,omitempty"`
	EndDateVisibilityRestriction *time.Time `gorm:"column:end_date_visibility_restriction;type:date" json:"end_date_visibility_restriction,omitempty"`

	DecisionMonetary          *string    `gorm:"column:decision_monetary;type:text" json:"decision_monetary,omitempty"`
	DecisionMonetaryOther     *string    `gorm:"column:decision_monetary_other;type:text" json:"decision_monetary_other,omitempty"`
	EndDateMonetaryRestriction *time.Time `gorm:"column:end_date_monetary_restriction;type:date" json:"end_date_monetary_restriction,omitempty"`

	DecisionProvision         *string    `gorm:"column:decision_provision;type:text" json:"decision_provision,omitempty"`
	EndDateServiceRestriction *time.Time `gorm:"column:end_date_service_restriction;type:date" json:"end_date_service_restriction,omitempty"`

	DecisionAccount           *string    `gorm:"column:decision_account;type:text" json:"decision_account,omitempty"`
	EndDateAccountRestriction *time.Time `gorm:"column:end_date_account_restriction;type:date" json:"end_date_account_restriction,omitempty"`
	AccountType               *string    `gorm:"column:account_type;type:text" json:"account_type,omitempty"`

	DecisionGround             *string `gorm:"column:decision_ground;type:text" json:"decision_ground,omitempty"`
	DecisionGroundReferenceURL *string `gorm:"column:decision_ground_reference_url;type:text" json:"decision_ground_reference_url,omitempty"`
	IllegalContentLegalGround  *string `gorm:"column:illegal_content_legal_ground;type:text" json:"illegal_content_legal_ground,omitempty"`
	IllegalContentExplanation  *string `gorm:"column:illegal_content_explanation;type:text" json:"illegal_content_explanation,omitempty"`
	IncompatibleContentGround      *string `gorm:"column:incompatible_content_ground;type:text" json:"incompatible_content_ground,omitempty"`
	IncompatibleContentExplanation *string `gorm:"column:incompatible_content_explanation;type:text" json:"incompatible_content_explanation,omitempty"`
	IncompatibleContentIllegal     *string `gorm:"column:incompatible_content_illegal;type:text" json:"incompatible_content_illegal,omitempty"`

	Category                   *string `gorm:"column:category;type:text" json:"category,omitempty"`
	CategoryAddition           *string `gorm:"column:category_addition;type:text" json:"category_addition,omitempty"`
	CategorySpecification      *string `gorm:"column:category_specification;type:text" json:"category_specification,omitempty"`
	CategorySpecificationOther *string `gorm:"column:category_specification_other;type:text" json:"category_specification_other,omitempty"`

	ContentType      *string    `gorm:"column:content_type;type:jsonb" json:"content_type,omitempty"`
	ContentTypeOther *string    `gorm:"column:content_type_other;type:text" json:"content_type_other,omitempty"`
	ContentLanguage  *string    `gorm:"column:content_language;type:text" json:"content_language,omitempty"`
	ContentDate      *time.Time `gorm:"column:content_date;type:date" json:"content_date,omitempty"`
	ContentIDEan     *string    `gorm:"column:content_id_ean;type:text" json:"content_id_ean,omitempty"`

	TerritorialScope *string    `gorm:"column:territorial_scope;type:jsonb" json:"territorial_scope,omitempty"`
	ApplicationDate  *time.Time `gorm:"column:application_date;type:date" json:"application_date,omitempty"`
	DecisionFacts    *string    `gorm:"column:decision_facts;type:text" json:"decision_facts,omitempty"`

	SourceType     *string `gorm:"column:source_type;type:text" json:"source_type,omitempty"`
	SourceIdentity *string `gorm:"column:source_identity;type:text" json:"source_identity,omitempty"`

	AutomatedDetection *bool   `gorm:"column:automated_detection" json:"automated_detection,omitempty"`
	AutomatedDecision  *string `gorm:"column:automated_decision;type:text" json:"automated_decision,omitempty"`

	PlatformName *string `gorm:"column:platform_name;type:text" json:"platform_name,omitempty"`
	PlatformUID  *string `gorm:"column:platform_uid;type:text" json:"platform_uid,omitempty"`

	CreatedAt *time.Time `gorm:"column:created_at" json:"created_at,omitempty"`
	LoadedAt  time.Time  `gorm:"column:loaded_at;not null;default:CURRENT_TIMESTAMP" json:"loaded_at"`

	IngestionRunID string `gorm:"column:ingestion_run_id;type:varchar(36);not null;index" json:"ingestion_run_id"`
}

// TableName returns the database table name for Statement.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Statement) TableName() string {
	return "statement_of_reasons"
}
