package panel

// Resource names known to the panel
const (
	ResourceLease                  = "Lease"
	ResourceRfq                    = "Rfq"
	ResourceTenderBond             = "TenderBond"
	ResourceSupplierRiskAssessment = "SupplierRiskAssessment"
	ResourcePurchaseOrder          = "PurchaseOrder"
)

// draftCreate stamps the creator and starts the record as a draft
func draftCreate() Mutator {
	return Chain(StampCreatedBy(), DefaultStatus(StatusDraft))
}

// DefaultResources returns the procurement resources served by the panel
func DefaultResources() []ResourceDefinition {
	return []ResourceDefinition{
		{
			Name: ResourceLease,
			Slug: "leases",
			Pages: map[PageType]PageConfig{
				PageList:   {Actions: []ActionKind{ActionCreate}},
				PageCreate: {Mutate: LeaseCreateMutator(), Redirect: RedirectIndex},
				PageEdit:   {Actions: []ActionKind{ActionView, ActionDelete}, Mutate: LeaseEditMutator(), Redirect: RedirectIndex},
				PageView:   {Actions: []ActionKind{ActionEdit}},
			},
		},
		{
			Name: ResourceRfq,
			Slug: "rfqs",
			Pages: map[PageType]PageConfig{
				PageList:   {Actions: []ActionKind{ActionCreate}},
				PageCreate: {Mutate: draftCreate(), Redirect: RedirectIndex},
				PageEdit:   {Actions: []ActionKind{ActionView, ActionDelete}, Mutate: StampUpdatedBy(), Redirect: RedirectIndex},
				PageView:   {Actions: []ActionKind{ActionEdit}},
			},
		},
		{
			Name:        ResourceTenderBond,
			Slug:        "tender-bonds",
			SoftDeletes: true,
			Pages: map[PageType]PageConfig{
				PageList:   {Actions: []ActionKind{ActionCreate}},
				PageCreate: {Mutate: draftCreate(), Redirect: RedirectIndex},
				PageEdit:   {Actions: []ActionKind{ActionView, ActionDelete, ActionForceDelete, ActionRestore}, Mutate: StampUpdatedBy(), Redirect: RedirectIndex},
				PageView:   {Actions: []ActionKind{ActionEdit}},
			},
		},
		{
			Name:        ResourceSupplierRiskAssessment,
			Slug:        "supplier-risk-assessments",
			SoftDeletes: true,
			Pages: map[PageType]PageConfig{
				PageList:   {Actions: []ActionKind{ActionCreate}},
				PageCreate: {Mutate: StampCreatedBy(), Redirect: RedirectIndex},
				PageEdit:   {Actions: []ActionKind{ActionDelete, ActionForceDelete, ActionRestore}, Mutate: StampUpdatedBy(), Redirect: RedirectIndex},
			},
		},
		{
			Name: ResourcePurchaseOrder,
			Slug: "purchase-orders",
			Pages: map[PageType]PageConfig{
				PageList:   {Actions: []ActionKind{ActionCreate}},
				PageCreate: {Mutate: draftCreate(), Redirect: RedirectIndex},
				PageEdit:   {Actions: []ActionKind{ActionDelete}, Mutate: StampUpdatedBy(), Redirect: RedirectIndex},
			},
		},
	}
}

// DefaultRegistry builds the registry of DefaultResources
func DefaultRegistry() *Registry {
	return MustNewRegistry(DefaultResources()...)
}
