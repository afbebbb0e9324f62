package swagger

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GabrielNunesIT/bargen/internal/domain"
)

// OperationKind identifies the REST convention used for a trigger.
type OperationKind int

// Operation kinds. Any trigger name that is not a built-in kind is a custom
// method declared under the model's methods.
const (
	KindCustom OperationKind = iota
	KindRetrieve
	KindCreate
	KindRetrieveAll
	KindUpsertWithWhere
	KindReplaceOrCreate
)

// Pagination modes of retrieveall.
const (
	PaginationSkipLimit  = "SKIP_LIMIT"
	PaginationTokenLimit = "TOKEN_LIMIT"
)

const successDescription = "Request was successful"

// ParseOperationKind maps a trigger name to its kind.
func ParseOperationKind(name string) OperationKind {
	switch name {
	case "retrieve":
		return KindRetrieve
	case "create":
		return KindCreate
	case "retrieveall":
		return KindRetrieveAll
	case "upsertwithwhere":
		return KindUpsertWithWhere
	case "replaceorcreate":
		return KindReplaceOrCreate
	default:
		return KindCustom
	}
}

type model struct {
	name string
	node *yaml.Node
}

type idProperty struct {
	name string
	typ  string
}

func (d *Document) addOperation(operation string, m model) error {
	switch ParseOperationKind(operation) {
	case KindRetrieve:
		return d.addRetrieve(m)
	case KindCreate:
		d.addCreate(m)
	case KindRetrieveAll:
		d.addRetrieveAll(m)
	case KindUpsertWithWhere:
		d.addUpsertWithWhere(m)
	case KindReplaceOrCreate:
		return d.addReplaceOrCreate(m)
	default:
		return d.addCustom(operation, m)
	}

	return nil
}

func (d *Document) addRetrieve(m model) error {
	id, err := modelID(m)
	if err != nil {
		return err
	}

	d.path("/"+m.name+"/{"+id.name+"}").Set("get", &domain.Operation{
		Tags:        []string{m.name},
		Summary:     "Find a model instance by {{id}} from the data source.",
		OperationID: m.name + ".findById",
		Parameters:  []*domain.Parameter{idParameter(m, id)},
		Responses:   modelResponses(m.name, "200"),
	})

	return nil
}

func (d *Document) addCreate(m model) {
	d.path("/"+m.name).Set("post", &domain.Operation{
		Tags:        []string{m.name},
		Summary:     "Create a new instance of the model and persist it into the data source.",
		OperationID: m.name + ".create",
		Parameters:  []*domain.Parameter{bodyParameter(m, "Model instance data")},
		Responses:   modelResponses(m.name, "201"),
	})
}

func (d *Document) addRetrieveAll(m model) {
	interaction := domain.LookupPath(m.node, "interactions", "retrieveall")
	pagination := domain.ScalarString(domain.MappingValue(interaction, "pagination-type"))
	fields := domain.ScalarStrings(domain.LookupPath(interaction, "filterSupport", "queryablefields"))

	var parameters []*domain.Parameter

	switch pagination {
	case PaginationSkipLimit:
		parameters = append(parameters,
			queryParameter("skip", "number"),
			queryParameter("limit", "number"),
		)
	case PaginationTokenLimit:
		parameters = append(parameters,
			queryParameter("token", "string"),
			queryParameter("limit", "number"),
		)
	}

	if len(fields) > 0 {
		filter := queryParameter("filter", "string")
		filter.Format = "JSON"
		parameters = append(parameters, filter)
		parameters = append(parameters, d.fieldParameters(m, fields)...)
	}

	properties := domain.NewOrderedMap[*domain.Schema]()
	properties.Set(m.name, &domain.Schema{Type: "array", Items: domain.RefSchema(m.name)})

	if next := paginationCursor(pagination); next != nil {
		properties.Set("next", next)
	}

	responses := domain.NewOrderedMap[*domain.Response]()
	responses.Set("200", &domain.Response{
		Description: successDescription,
		Schema:      &domain.Schema{Type: "object", Properties: properties},
	})

	d.path("/"+m.name).Set("get", &domain.Operation{
		Tags:        []string{m.name},
		Summary:     "Find all instances of the model matched by filter from the data source.",
		OperationID: m.name + ".find",
		Parameters:  parameters,
		Responses:   responses,
	})
}

func (d *Document) addUpsertWithWhere(m model) {
	parameters := []*domain.Parameter{bodyParameter(m, "An object or model property name/value pairs")}

	fields := domain.ScalarStrings(domain.LookupPath(m.node, "interactions", "upsertwithwhere", "filterSupport", "queryablefields"))
	if len(fields) > 0 {
		parameters = append(parameters, d.fieldParameters(m, fields)...)

		where := queryParameter("where", "string")
		where.Format = "JSON"
		parameters = append(parameters, where)
	}

	d.path("/"+m.name+"/upsertWithWhere").Set("post", &domain.Operation{
		Tags:        []string{m.name},
		Summary:     "Update an existing model instance or insert a new one into the data source based on the where criteria.",
		OperationID: m.name + ".upsertWithWhere",
		Parameters:  parameters,
		Responses:   modelResponses(m.name, "200", "201"),
	})
}

func (d *Document) addReplaceOrCreate(m model) error {
	id, err := modelID(m)
	if err != nil {
		return err
	}

	d.path("/"+m.name+"/{"+id.name+"}").Set("put", &domain.Operation{
		Tags:        []string{m.name},
		Summary:     "Replace an existing model instance or insert a new one.",
		OperationID: m.name + ".patchAttributes",
		Parameters: []*domain.Parameter{
			idParameter(m, id),
			bodyParameter(m, "An object of model property name/value pairs"),
		},
		Responses: modelResponses(m.name, "200", "201"),
	})

	return nil
}

// addCustom converts a declared method. The flow path is in the form
// /:name/customget1 and becomes /<model>/{name}/customget1.
func (d *Document) addCustom(operation string, m model) error {
	method := domain.LookupPath(m.node, "methods", operation)
	if method == nil {
		return domain.NewInvalidFlowError("model %q has no method %q", m.name, operation)
	}

	verb := strings.ToLower(domain.ScalarString(domain.LookupPath(method, "http", "verb")))

	var codes []string

	switch verb {
	case "get", "delete", "patch":
		codes = []string{"200"}
	case "put", "post":
		codes = []string{"200", "201"}
	case "head":
	case "":
		return domain.NewInvalidFlowError("method %q of model %q has no http verb", operation, m.name)
	default:
		return domain.NewInvalidFlowError("method %q of model %q uses unsupported http verb %q", operation, m.name, verb)
	}

	responses := modelResponses(m.name, codes...)
	if verb == "head" {
		responses.Set("204", &domain.Response{Description: successDescription})
	}

	parameters := []*domain.Parameter{}

	for _, accept := range domain.Items(domain.MappingValue(method, "accepts")) {
		arg := domain.ScalarString(domain.MappingValue(accept, "arg"))
		param := &domain.Parameter{
			Name:        arg,
			In:          domain.ScalarString(domain.LookupPath(accept, "http", "source")),
			Description: m.name + " " + arg,
		}

		argType := domain.ScalarString(domain.MappingValue(accept, "type"))
		if param.In == "body" {
			param.Schema = domain.RefSchema(argType)
			param.Required = true
		} else {
			param.Type = argType
			param.Required = domain.Truthy(domain.MappingValue(accept, "required"))
		}

		parameters = append(parameters, param)
	}

	path := customPath(m.name, domain.ScalarString(domain.LookupPath(method, "http", "path")))

	d.path(path).Set(verb, &domain.Operation{
		Tags:        []string{m.name},
		Summary:     domain.ScalarString(domain.MappingValue(method, "description")),
		OperationID: m.name + "." + operation,
		Parameters:  parameters,
		Responses:   responses,
	})

	return nil
}

func customPath(modelName, flowPath string) string {
	var b strings.Builder

	b.WriteString("/" + modelName)

	for _, segment := range strings.Split(flowPath, "/") {
		switch {
		case segment == "":
		case strings.HasPrefix(segment, ":"):
			b.WriteString("/{" + segment[1:] + "}")
		default:
			b.WriteString("/" + segment)
		}
	}

	return b.String()
}

// fieldParameters builds one optional query parameter per queryable field.
func (d *Document) fieldParameters(m model, fields []string) []*domain.Parameter {
	parameters := make([]*domain.Parameter, 0, len(fields))

	for _, field := range fields {
		param := queryParameter(field, parameterType(m, field))
		if param.Type == "date" {
			param.Type = "string"
			param.Format = "date-time"
		}

		parameters = append(parameters, param)
	}

	return parameters
}

// parameterType returns the declared type of a top-level property, or
// "string" for fields the model does not declare.
func parameterType(m model, field string) string {
	typ := domain.LookupPath(m.node, "properties", field, "type")

	switch {
	case typ == nil:
		return "string"
	case typ.Kind == yaml.MappingNode:
		return "object"
	case typ.Kind == yaml.SequenceNode:
		return "array"
	default:
		return domain.ScalarString(typ)
	}
}

// modelID returns the first property flagged id: true.
func modelID(m model) (idProperty, error) {
	for _, prop := range domain.Entries(domain.MappingValue(m.node, "properties")) {
		if domain.Truthy(domain.MappingValue(prop.Value, "id")) {
			return idProperty{
				name: prop.Key,
				typ:  domain.ScalarString(domain.MappingValue(prop.Value, "type")),
			}, nil
		}
	}

	return idProperty{}, domain.NewInvalidFlowError("model %q has no id property", m.name)
}

func paginationCursor(pagination string) *domain.Schema {
	properties := domain.NewOrderedMap[*domain.Schema]()

	switch pagination {
	case PaginationSkipLimit:
		properties.Set("skip", &domain.Schema{Type: "number"})
		properties.Set("limit", &domain.Schema{Type: "number"})
	case PaginationTokenLimit:
		properties.Set("next_page_token", &domain.Schema{Type: "string"})
		properties.Set("limit", &domain.Schema{Type: "number"})
	default:
		return nil
	}

	return &domain.Schema{Type: "object", Properties: properties}
}

func idParameter(m model, id idProperty) *domain.Parameter {
	return &domain.Parameter{
		Name:        id.name,
		In:          "path",
		Description: m.name + " id",
		Required:    true,
		Type:        id.typ,
	}
}

func bodyParameter(m model, description string) *domain.Parameter {
	return &domain.Parameter{
		Name:        "data",
		In:          "body",
		Description: description,
		Required:    true,
		Schema:      domain.RefSchema(m.name),
	}
}

func queryParameter(name, typ string) *domain.Parameter {
	return &domain.Parameter{
		Name:     name,
		In:       "query",
		Required: false,
		Type:     typ,
	}
}

// modelResponses returns one response per status code, each carrying the model.
func modelResponses(modelName string, codes ...string) *domain.OrderedMap[*domain.Response] {
	responses := domain.NewOrderedMap[*domain.Response]()

	for _, code := range codes {
		responses.Set(code, &domain.Response{
			Description: successDescription,
			Schema:      domain.RefSchema(modelName),
		})
	}

	return responses
}
