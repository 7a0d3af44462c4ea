package db

import (
	"testing"

	"personnel-registry/internal/model"
	"personnel-registry/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMongoIdentityFilter(t *testing.T) {
	filter, err := mongoIdentityFilter(model.IdentityFilter{CodeNoKey: "e-001", AdhaarNo: "123"})
	require.NoError(t, err)
	require.Len(t, filter, 1)
	assert.Equal(t, "$or", filter[0].Key)
	assert.Len(t, filter[0].Value, 2)

	oid := bson.NewObjectID()
	filter, err = mongoIdentityFilter(model.IdentityFilter{CodeNoKey: "e-001", ExcludeID: oid.Hex()})
	require.NoError(t, err)
	require.Len(t, filter, 2)
	assert.Equal(t, "_id", filter[1].Key)
	assert.Equal(t, bson.D{{Key: "$ne", Value: oid}}, filter[1].Value)

	_, err = mongoIdentityFilter(model.IdentityFilter{CodeNoKey: "e-001", ExcludeID: "not-hex"})
	assert.ErrorIs(t, err, errors.ErrInvalidID)
}

func TestToMongo_WritesFoldedCode(t *testing.T) {
	doc := toMongo(&model.Record{CodeNo: " AbC-9 "})
	assert.Equal(t, "abc-9", doc.CodeNoKey)
}

func TestIdentityWhere(t *testing.T) {
	where, args := identityWhere(model.IdentityFilter{CodeNoKey: "e-001"})
	assert.Equal(t, "(code_no_key = ?)", where)
	assert.Equal(t, []any{"e-001"}, args)

	where, args = identityWhere(model.IdentityFilter{CodeNoKey: "e-001", AdhaarNo: "123", ExcludeID: "id-1"})
	assert.Equal(t, "(code_no_key = ? OR adhaar_no = ?) AND id <> ?", where)
	assert.Equal(t, []any{"e-001", "123", "id-1"}, args)
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, likeEscaper.Replace(`50%_off\`))
}

func TestRecordsTable_BinaryIdentityColumns(t *testing.T) {
	for _, ddl := range []string{createRecordsTable, binaryIdentityColumns} {
		assert.Regexp(t, `code_no_key\s+VARCHAR\(64\)\s+COLLATE utf8mb4_bin`, ddl)
		assert.Regexp(t, `adhaar_no\s+VARCHAR\(32\)\s+COLLATE utf8mb4_bin`, ddl)
	}
}
