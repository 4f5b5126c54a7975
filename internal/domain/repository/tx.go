package repository

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Fees        FeeRepository
	Items       LineItemRepository
	Adjustments AdjustmentRepository
	Exemptions  ExemptionRepository
	History     HistoryRepository
	Receipts    ReceiptRepository
	Backups     BackupRepository
}
