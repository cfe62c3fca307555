package audit

// Log adalah cost history yang hanya bisa ditambah. Tidak aman untuk akses
// bersamaan; store yang melakukan serialisasi.
type Log struct {
	records []Record
}

// NewLog membuat log kosong.
func NewLog() *Log {
	return &Log{}
}

// Append menambah record dan menghitung total cost.
func (l *Log) Append(rec Record) Record {
	rec.TotalCost = float64(rec.Qty) * rec.UnitCost
	l.records = append(l.records, rec)
	return rec
}

// Records mengembalikan salinan seluruh record sesuai urutan penulisan.
func (l *Log) Records() []Record {
	return append([]Record(nil), l.records...)
}

// Len mengembalikan jumlah record.
func (l *Log) Len() int {
	return len(l.records)
}

// Clone membuat salinan independen.
func (l *Log) Clone() *Log {
	return &Log{records: l.Records()}
}

// Load mengganti isi log.
func (l *Log) Load(records []Record) {
	l.records = append([]Record(nil), records...)
}
