package importer

// columnMapping selects which fields of a data row hold the closing
// price and the volume. The source format sometimes carries an
// "adjusted close" column between close and volume, so the mapping is
// chosen per row from its width rather than assumed globally. New source
// formats get a new case here without touching the parse logic.
type columnMapping struct {
	closeIndex  int
	volumeIndex int
}

// minFields is the smallest row that can carry date, OHLC and volume.
const minFields = 5

// mappingForWidth returns the column mapping for a row width, or false
// when the row is too narrow to carry an observation.
func mappingForWidth(width int) (columnMapping, bool) {
	if width < minFields {
		return columnMapping{}, false
	}

	switch width {
	case 6: // Date,Open,High,Low,Close,Volume
		return columnMapping{closeIndex: 4, volumeIndex: 5}, true
	case 7: // Date,Open,High,Low,Close,Adj Close,Volume
		return columnMapping{closeIndex: 4, volumeIndex: 6}, true
	default: // Close at index 4, volume in the last column
		return columnMapping{closeIndex: 4, volumeIndex: width - 1}, true
	}
}
