package bar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/bargen/internal/domain"
	"github.com/GabrielNunesIT/bargen/internal/swagger"
)

func TestParseAPIDefinition(t *testing.T) {
	require := require.New(t)

	data, err := os.ReadFile(filepath.Join("..", "swagger", "testdata", "ultimate.yaml"))
	require.NoError(err)

	flow, err := domain.ParseFlow(data)
	require.NoError(err)

	doc, err := swagger.New(flow)
	require.NoError(err)

	def := ParseAPIDefinition(doc.Swagger())
	require.Equal("Ultimate_Flow", def.MainFlowName)
	require.Equal("/Ultimate_Flow", def.BasePath)

	var ids []string
	for _, op := range def.Operations {
		ids = append(ids, op.Name)
		require.Equal(def.MainFlowName, op.MainFlowName)
	}

	require.Equal([]string{
		"model1.findById",
		"model1.patchAttributes",
		"model1.create",
		"model1.find",
		"model1.upsertWithWhere",
		"model2.find",
		"model2.findById",
		"model2.customget",
		"model2.customhead",
		"model2.custompost",
	}, ids)

	first := def.Operations[0]
	require.Equal(Operation{
		Name:          "model1.findById",
		SubflowName:   "model1_findById",
		MainFlowName:  "Ultimate_Flow",
		Method:        "get",
		LabelNodeID:   "FCMComposite_1_6",
		SubflowNodeID: "FCMComposite_1_7",
		Connection1ID: "FCMConnection_3",
		Connection2ID: "FCMConnection_4",
		BranchYPos:    225,
	}, first)

	require.Equal("put", def.Operations[1].Method)
	require.Equal("head", def.Operations[8].Method)
	require.Equal("FCMComposite_1_24", def.Operations[9].LabelNodeID)
	require.Equal(900, def.Operations[9].BranchYPos)
}

func TestIdentifiersAreDistinct(t *testing.T) {
	require := require.New(t)

	seen := make(map[string]int)
	prevY := -1

	for n := range 200 {
		op := newOperation(n, "flow", "get", "m.op")

		for _, id := range []string{op.LabelNodeID, op.SubflowNodeID, op.Connection1ID, op.Connection2ID} {
			prev, dup := seen[id]
			require.False(dup, "%s reused by operations %d and %d", id, prev, n)
			seen[id] = n
		}

		require.Greater(op.BranchYPos, prevY)
		prevY = op.BranchYPos
	}

	for _, reserved := range []string{"FCMComposite_1_1", "FCMComposite_1_5", "FCMConnection_1", "FCMConnection_2"} {
		require.NotContains(seen, reserved)
	}
}

func TestSubflowName(t *testing.T) {
	require := require.New(t)

	require.Equal("a_b.c", newOperation(0, "f", "get", "a.b.c").SubflowName)
	require.True(newOperation(0, "f", "patch", "a.b").HasBody())
	require.False(newOperation(0, "f", "delete", "a.b").HasBody())
}
