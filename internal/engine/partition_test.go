package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionDir(t *testing.T) {
	y := int32(2018)

	dir, err := partitionDir([]string{"year", "artist_id"}, []PartitionValue{PartitionInt(&y), PartitionString(strPtr("ARJIE2Y1187B994AB7"))})
	require.NoError(t, err)
	assert.Equal(t, "year=2018/artist_id=ARJIE2Y1187B994AB7", dir)

	dir, err = partitionDir([]string{"year", "artist_id"}, []PartitionValue{PartitionInt(nil), PartitionString(strPtr(""))})
	require.NoError(t, err)
	assert.Equal(t, "year=__HIVE_DEFAULT_PARTITION__/artist_id=__HIVE_DEFAULT_PARTITION__", dir)

	_, err = partitionDir([]string{"year"}, nil)
	assert.Error(t, err)
}

func TestEscapePathName(t *testing.T) {
	assert.Equal(t, "AC%2FDC", escapePathName("AC/DC"))
	assert.Equal(t, "a%3Db%25c", escapePathName("a=b%c"))
	assert.Equal(t, "Beyoncé Knowles", escapePathName("Beyoncé Knowles"))
	assert.Equal(t, "%0A", escapePathName("\n"))
}
