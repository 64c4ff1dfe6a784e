// Package models defines the core data structures shared by the portal
// client and the demo backend: users, profiles, collaborations and
// analysis payloads.
package models

import "time"

// User represents a portal account as stored by the backend.
type User struct {
	// ID is the numeric identifier of the user.
	ID int64
	// Email is the unique login of the user.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
	// FirstName, LastName and Institution describe the researcher.
	FirstName   string
	LastName    string
	Institution string
	// Role is "researcher" unless set otherwise at registration.
	Role string
	// CreatedAt is the registration time.
	CreatedAt time.Time
}

// Profile converts the stored user into its public profile record.
func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Institution: u.Institution,
		Role:        u.Role,
	}
}

// Profile is the remote user record mirrored by the client.
type Profile struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Institution string `json:"institution"`
	Role        string `json:"role"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Institution string `json:"institution"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the account creation payload.
type Registration struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Institution string `json:"institution"`
	Role        string `json:"role"`
}

// DefaultRole is assigned to registrations that do not name a role.
const DefaultRole = "researcher"

// Token is the reply of the login and register endpoints.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Collaboration is a research project shared between participants.
type Collaboration struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     int64     `json:"owner_id"`
}

// CollaborationStatusActive is the status of a freshly created collaboration.
const CollaborationStatusActive = "active"

// NewCollaboration is the payload of the start_collaboration endpoint.
type NewCollaboration struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CollaborationCreated is the reply of the start_collaboration endpoint.
type CollaborationCreated struct {
	CollaborationID string `json:"collaboration_id"`
	Message         string `json:"message"`
}

// AnalysisKind identifies one of the backend analysis endpoints.
type AnalysisKind string

const (
	// AnalysisQC runs quality control over a genotype table.
	AnalysisQC AnalysisKind = "qc"
	// AnalysisStats computes per-SNP summary statistics.
	AnalysisStats AnalysisKind = "stats"
	// AnalysisGWAS runs an allelic chi-square association test.
	AnalysisGWAS AnalysisKind = "gwas"
)

// Upload is the payload posted to the analysis endpoints.
type Upload struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
	// SNPStats optionally carries pre-aggregated allele counts for the
	// chi-square endpoint instead of CSV data.
	SNPStats map[string]AlleleCounts `json:"snp_stats,omitempty"`
}

// AlleleCounts are the 2x2 allele counts of one SNP.
type AlleleCounts struct {
	CaseAlt    float64 `json:"case_alt"`
	CaseRef    float64 `json:"case_ref"`
	ControlAlt float64 `json:"control_alt"`
	ControlRef float64 `json:"control_ref"`
}

// QCResults summarises a genotype table.
type QCResults struct {
	TotalSamples    int      `json:"total_samples"`
	TotalSNPs       int      `json:"total_snps"`
	MissingDataRate float64  `json:"missing_data_rate"`
	SampleIDs       []string `json:"sample_ids"`
}

// StatsResults holds per-SNP means and standard deviations.
type StatsResults struct {
	TotalSamples int       `json:"total_samples"`
	TotalSNPs    int       `json:"total_snps"`
	MeanValues   []float64 `json:"mean_values"`
	StdValues    []float64 `json:"std_values"`
}

// ChiSquareResult is the association test outcome for one SNP.
type ChiSquareResult struct {
	ChiSquare float64 `json:"chi_square"`
	PValue    float64 `json:"p_value"`
}

// AnalysisResponse is the reply of any analysis endpoint; exactly one of
// the result fields is set.
type AnalysisResponse struct {
	QCResults    *QCResults                 `json:"qc_results,omitempty"`
	StatsResults *StatsResults              `json:"stats_results,omitempty"`
	GWASResults  map[string]ChiSquareResult `json:"gwas_results,omitempty"`
	Message      string                     `json:"message"`
}

// Health is the reply of the health endpoint.
type Health struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// ErrorDetail is the JSON body of every rejected request.
type ErrorDetail struct {
	Detail string `json:"detail"`
}

// AnalysisRun is the stored record of one analysis upload.
type AnalysisRun struct {
	UserID   int64
	Kind     AnalysisKind
	Filename string
	// Results is the JSON encoded analysis response.
	Results []byte
}
