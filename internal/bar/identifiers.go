package bar

import (
	"strconv"
	"strings"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

// Canvas layout of the generated main flow. The boilerplate nodes and
// connections occupy the lower ids, so operation ids start above them.
const (
	nodeIDPrefix       = "FCMComposite_1_"
	connectionIDPrefix = "FCMConnection_"
	firstNodePair      = 3
	firstConnection    = 3
	firstBranchY       = 225
	branchYStep        = 75
)

// Operation is one path and verb of the API with the identifiers of its
// nodes in the main flow.
type Operation struct {
	Name          string
	SubflowName   string
	MainFlowName  string
	Method        string
	LabelNodeID   string
	SubflowNodeID string
	Connection1ID string
	Connection2ID string
	BranchYPos    int
}

// HasBody reports whether the operation's verb carries a request body.
func (o Operation) HasBody() bool {
	switch o.Method {
	case "post", "put", "patch":
		return true
	default:
		return false
	}
}

// APIDefinition is the template input derived from a generated API.
type APIDefinition struct {
	MainFlowName string
	BasePath     string
	Operations   []Operation

	CSInstanceID string
	CSURL        string
	CSAPIKeyName string
}

// ParseAPIDefinition lists every operation of doc in path order and
// allocates its identifiers.
func ParseAPIDefinition(doc *domain.Swagger) *APIDefinition {
	def := &APIDefinition{
		MainFlowName: doc.Info.Title,
		BasePath:     doc.BasePath,
	}

	for _, path := range doc.Paths.Keys() {
		item, _ := doc.Paths.Get(path)

		for _, method := range item.Keys() {
			op, _ := item.Get(method)
			def.Operations = append(def.Operations, newOperation(len(def.Operations), def.MainFlowName, method, op.OperationID))
		}
	}

	return def
}

// newOperation allocates the identifiers of the operation at index n.
func newOperation(n int, mainFlowName, method, operationID string) Operation {
	node := 2 * (n + firstNodePair)

	return Operation{
		Name:          operationID,
		SubflowName:   strings.Replace(operationID, ".", "_", 1),
		MainFlowName:  mainFlowName,
		Method:        method,
		LabelNodeID:   nodeIDPrefix + strconv.Itoa(node),
		SubflowNodeID: nodeIDPrefix + strconv.Itoa(node+1),
		Connection1ID: connectionIDPrefix + strconv.Itoa(firstConnection+2*n),
		Connection2ID: connectionIDPrefix + strconv.Itoa(firstConnection+1+2*n),
		BranchYPos:    firstBranchY + branchYStep*n,
	}
}
