package panel

// Lease ledger fields (IFRS 16)
const (
	FieldRightOfUseAsset         = "right_of_use_asset"
	FieldLeaseLiability          = "lease_liability"
	FieldAccumulatedDepreciation = "accumulated_depreciation"
)

// LeaseLedgerFields lists the accounting fields a new lease starts with at zero.
// accumulated_depreciation is included although lease creation is documented as
// defaulting four fields (created_by, status and the first two ledger fields).
func LeaseLedgerFields() []string {
	return []string{
		FieldRightOfUseAsset,
		FieldLeaseLiability,
		FieldAccumulatedDepreciation,
	}
}

// LeaseCreateMutator prepares a new lease submission: it records the creating
// actor, starts the lease as a draft and zeroes the ledger balances, which are
// only populated once the lease is recognised.
func LeaseCreateMutator() Mutator {
	return Chain(
		StampCreatedBy(),
		DefaultStatus(StatusDraft),
		ZeroFields(LeaseLedgerFields()...),
	)
}

// LeaseEditMutator records the editing actor and keeps the ledger balances
// numeric whether the form posted them as numbers or strings.
func LeaseEditMutator() Mutator {
	return Chain(
		StampUpdatedBy(),
		NormalizeDecimals(LeaseLedgerFields()...),
	)
}
