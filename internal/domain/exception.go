package domain

// Stage is a pipeline checkpoint label used by the exception dashboard.
type Stage string

const (
	StageUpdate     Stage = "S0 Update"
	StageStart      Stage = "S1 Start"
	StagePayment    Stage = "S1 Payment"
	StageMaterials  Stage = "S2 Materials"
	StageWait       Stage = "S3 Wait"
	StageProduction Stage = "S4 Production"
	StageShipping   Stage = "S5 Shipping"
)

// BlockReason explains why a contract is flagged.
type BlockReason string

const (
	BlockNone      BlockReason = "none"
	BlockMoney     BlockReason = "money"
	BlockMaterials BlockReason = "materials"
	BlockLeadTime  BlockReason = "leadtime"
	BlockSilent    BlockReason = "silent"
)

// Classification is the worst-case risk state of one contract on one day.
// It is derived on every read and never stored.
type Classification struct {
	ContractID  string
	Stage       Stage
	DelayDays   int
	BlockReason BlockReason
	IsBlocker   bool
	StatusText  string
}
