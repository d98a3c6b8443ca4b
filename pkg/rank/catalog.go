package rank

import (
	"time"

	"github.com/google/uuid"
)

// System rank IDs. These are stable identifiers referenced by rank
// assignments and the rank→capability mapping.
const (
	RankAdministrator  = "rank-administrator"
	RankAgencyDirector = "rank-agency-director"
	RankBranchManager  = "rank-branch-manager"
	RankAgent          = "rank-agent"
	RankClient         = "rank-client"
	RankPartner        = "rank-partner"
)

// Capability IDs in the static catalog.
const (
	CapabilityFullAccess        = "cap-full-access"
	CapabilityAgencyManagement  = "cap-agency-management"
	CapabilityPortfolio         = "cap-portfolio"
	CapabilityFinancial         = "cap-financial"
	CapabilityClientSelfService = "cap-client-self-service"
	CapabilityRecordLinking     = "cap-record-linking"
)

// Module type tags carried by business records.
const (
	ModuleInsurance = "insurance"
	ModuleFinancial = "financial"
	ModuleClaims    = "claims"
	ModuleContracts = "contracts"
	ModuleDrivers   = "drivers"
	ModuleVehicles  = "vehicles"
)

// capabilityCatalog is the static capability catalog. It is read-only after
// process start.
var capabilityCatalog = []Capability{
	{
		ID:          CapabilityFullAccess,
		Name:        "Full Access",
		Description: "Unrestricted access to every module and action",
		Modules:     []string{Wildcard},
		Permissions: []Permission{
			{ID: "perm-all", Action: ActionRead, Resource: Wildcard},
			{ID: "perm-all-write", Action: ActionWrite, Resource: Wildcard},
			{ID: "perm-all-delete", Action: ActionDelete, Resource: Wildcard},
			{ID: "perm-all-create", Action: ActionCreate, Resource: Wildcard},
			{ID: "perm-all-modify", Action: ActionModify, Resource: Wildcard},
			{ID: "perm-all-link", Action: ActionLink, Resource: Wildcard},
			{ID: "perm-all-unlink", Action: ActionUnlink, Resource: Wildcard},
		},
	},
	{
		ID:          CapabilityAgencyManagement,
		Name:        "Agency Management",
		Description: "Manage agency portfolios, contracts and claims",
		Modules:     []string{ModuleInsurance, ModuleClaims, ModuleContracts, ModuleDrivers, ModuleVehicles},
		Permissions: []Permission{
			{ID: "perm-agency-read", Action: ActionRead, Resource: Wildcard},
			{ID: "perm-agency-write", Action: ActionWrite, Resource: Wildcard},
			{ID: "perm-agency-create", Action: ActionCreate, Resource: Wildcard},
			{ID: "perm-agency-modify", Action: ActionModify, Resource: Wildcard},
			{ID: "perm-agency-link", Action: ActionLink, Resource: "modules"},
			{ID: "perm-agency-unlink", Action: ActionUnlink, Resource: "modules"},
		},
	},
	{
		ID:          CapabilityPortfolio,
		Name:        "Portfolio",
		Description: "Work the agent book of business",
		Modules:     []string{ModuleInsurance, ModuleClaims, ModuleContracts, ModuleDrivers, ModuleVehicles},
		Permissions: []Permission{
			{ID: "perm-portfolio-read", Action: ActionRead, Resource: Wildcard},
			{ID: "perm-portfolio-write", Action: ActionWrite, Resource: "contracts"},
			{ID: "perm-portfolio-create", Action: ActionCreate, Resource: "claims"},
		},
	},
	{
		ID:          CapabilityFinancial,
		Name:        "Financial",
		Description: "Commissions, premiums and settlement data",
		Modules:     []string{ModuleFinancial},
		Permissions: []Permission{
			{ID: "perm-financial-read", Action: ActionRead, Resource: "financial"},
			{ID: "perm-financial-write", Action: ActionWrite, Resource: "financial"},
		},
	},
	{
		ID:          CapabilityClientSelfService,
		Name:        "Client Self Service",
		Description: "Read-only access to the client's own records",
		Modules:     []string{ModuleInsurance, ModuleContracts},
		Permissions: []Permission{
			{
				ID:       "perm-own-read",
				Action:   ActionRead,
				Resource: Wildcard,
				Conditions: []Condition{
					{Field: "createdBy", Operator: OperatorEquals, Value: CurrentUserSentinel},
				},
			},
			{
				ID:       "perm-own-modify",
				Action:   ActionModify,
				Resource: "contracts",
				Conditions: []Condition{
					{Field: "createdBy", Operator: OperatorEquals, Value: CurrentUserSentinel},
				},
			},
		},
	},
	{
		ID:          CapabilityRecordLinking,
		Name:        "Record Linking",
		Description: "Attach and detach records across parties",
		Modules:     []string{ModuleDrivers, ModuleVehicles},
		Permissions: []Permission{
			{ID: "perm-linking-link", Action: ActionLink, Resource: "modules"},
			{ID: "perm-linking-unlink", Action: ActionUnlink, Resource: "modules"},
		},
	},
}

// rankCapabilities maps system rank IDs to capability IDs.
var rankCapabilities = map[string][]string{
	RankAdministrator:  {CapabilityFullAccess},
	RankAgencyDirector: {CapabilityAgencyManagement, CapabilityFinancial, CapabilityRecordLinking},
	RankBranchManager:  {CapabilityAgencyManagement, CapabilityRecordLinking},
	RankAgent:          {CapabilityPortfolio, CapabilityRecordLinking},
	RankClient:         {CapabilityClientSelfService},
	RankPartner:        {CapabilityClientSelfService},
}

// systemRankDefs is the static rank catalog, ordered by level.
var systemRankDefs = []Rank{
	{ID: RankAdministrator, Name: "Administrator", Level: 0, Description: "Unrestricted administrator", Color: "#d32f2f", IsSystem: true},
	{ID: RankAgencyDirector, Name: "Agency Director", Level: 1, Description: "Directs the whole agency", Color: "#7b1fa2", IsSystem: true},
	{ID: RankBranchManager, Name: "Branch Manager", Level: 2, Description: "Manages a branch office", Color: "#1976d2", IsSystem: true},
	{ID: RankAgent, Name: "Agent", Level: 3, Description: "Handles a client portfolio", Color: "#388e3c", IsSystem: true},
	{ID: RankClient, Name: "Client", Level: 4, Description: "Insured customer", Color: "#f57c00", IsSystem: true},
	{ID: RankPartner, Name: "Partner", Level: 5, Description: "External partner with self-service access", Color: "#5d4037", IsSystem: true},
}

// SystemRanks returns the fixed set of system ranks, each hydrated with its
// capabilities. The returned slice is a fresh copy; callers may not reach the
// static catalog through it.
func SystemRanks() []Rank {
	ranks := make([]Rank, len(systemRankDefs))
	for i, def := range systemRankDefs {
		r := def
		r.Capabilities = CapabilitiesForRank(def.ID)
		ranks[i] = r
	}
	return ranks
}

// SystemRank looks up a single system rank by ID, hydrated with its
// capabilities. Returns false when the ID is not in the catalog.
func SystemRank(rankID string) (Rank, bool) {
	for _, def := range systemRankDefs {
		if def.ID == rankID {
			r := def
			r.Capabilities = CapabilitiesForRank(rankID)
			return r, true
		}
	}
	return Rank{}, false
}

// CapabilitiesForRank resolves the rank→capability mapping against the
// capability catalog. Unknown rank or capability IDs resolve to nothing; a
// missing mapping is not an error.
func CapabilitiesForRank(rankID string) []Capability {
	ids, ok := rankCapabilities[rankID]
	if !ok {
		return nil
	}
	caps := make([]Capability, 0, len(ids))
	for _, id := range ids {
		for _, c := range capabilityCatalog {
			if c.ID == id {
				caps = append(caps, c)
				break
			}
		}
	}
	return caps
}

// CreateRankInput carries the caller-supplied fields for a new rank.
type CreateRankInput struct {
	Name        string
	Level       int
	Description string
	Color       string
}

// CreateRank synthesizes a new, non-system rank with a generated ID and no
// capabilities. Capability assignment is a separate administrative step. The
// static catalog is never touched.
func CreateRank(in CreateRankInput) Rank {
	return Rank{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Level:        in.Level,
		Description:  in.Description,
		Color:        in.Color,
		IsSystem:     false,
		Capabilities: []Capability{},
		CreatedAt:    time.Now().UTC(),
	}
}
