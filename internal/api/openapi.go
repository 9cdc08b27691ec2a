package api

import (
	"github.com/mwhitford/attest/internal/config"
	"github.com/mwhitford/attest/pkg/openapi"
)

// buildSpec assembles the OpenAPI document for the API module. The spec
// is generated once at startup and served as static bytes.
func buildSpec(cfg *config.Config) ([]byte, error) {
	spec := openapi.NewSpec("Attest API", cfg.Version)
	spec.SetDescription("GAMP 5 categorization and OQ test generation service for URS documents.")
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(domainSchemas())
	spec.Components.AddResponses(map[string]*openapi.Response{
		"Unauthorized": {Description: "Missing or invalid bearer token"},
		"Unprocessable": {
			Description: "Categorization or generation rejected by compliance checks",
		},
	})

	addDocumentPaths(spec)
	addCategorizationPaths(spec)
	addTestSuitePaths(spec)
	addPromptPaths(spec)

	return openapi.MarshalJSON(spec)
}

func domainSchemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":            {Type: "string", Format: "uuid"},
				"title":         {Type: "string"},
				"version":       {Type: "string", Example: "1.0"},
				"source_system": {Type: "string", Example: "LIMS"},
				"filename":      {Type: "string"},
				"content_type":  {Type: "string"},
				"size_bytes":    {Type: "integer"},
				"page_count":    {Type: "integer"},
				"storage_key":   {Type: "string"},
				"checksum":      {Type: "string"},
				"status": {
					Type: "string",
					Enum: []any{"pending", "categorized", "in_review", "complete"},
				},
				"category":       {Type: "integer", Enum: []any{1, 3, 4, 5}},
				"confidence":     {Type: "number"},
				"uploaded_at":    {Type: "string", Format: "date-time"},
				"updated_at":     {Type: "string", Format: "date-time"},
				"categorized_at": {Type: "string", Format: "date-time"},
			},
		},
		"Categorization": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":              {Type: "string", Format: "uuid"},
				"document_id":     {Type: "string", Format: "uuid"},
				"category":        {Type: "integer", Enum: []any{1, 3, 4, 5}},
				"confidence":      {Type: "number", Example: 0.87},
				"rationale":       {Type: "string"},
				"category_scores": {Type: "object"},
				"requires_review": {Type: "boolean"},
				"validated_by":    {Type: "string"},
				"validated_at":    {Type: "string", Format: "date-time"},
				"categorized_at":  {Type: "string", Format: "date-time"},
				"strong_indicators": {
					Type:  "array",
					Items: &openapi.Schema{Type: "string"},
				},
				"weak_indicators": {
					Type:  "array",
					Items: &openapi.Schema{Type: "string"},
				},
				"exclusion_factors": {
					Type:  "array",
					Items: &openapi.Schema{Type: "string"},
				},
			},
		},
		"CategorizationError": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"document_id": {Type: "string", Format: "uuid"},
				"type": {
					Type: "string",
					Enum: []any{
						"confidence_error", "ambiguity_error", "validation_error",
						"compliance_error", "data_integrity_error", "io_error",
						"agent_error", "workflow_error", "timeout_error",
					},
				},
				"severity": {
					Type: "string",
					Enum: []any{"low", "medium", "high", "critical"},
				},
				"message":     {Type: "string"},
				"details":     {Type: "object"},
				"strategy":    {Type: "string", Enum: []any{"abort", "escalate", "human_intervention"}},
				"occurred_at": {Type: "string", Format: "date-time"},
			},
		},
		"TestSuite": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"document_id": {Type: "string", Format: "uuid"},
				"category":    {Type: "integer", Enum: []any{1, 3, 4, 5}},
				"cases": {
					Type:  "array",
					Items: openapi.SchemaRef("TestCase"),
				},
				"rationale":     {Type: "string"},
				"model_name":    {Type: "string"},
				"provider_name": {Type: "string"},
				"generated_at":  {Type: "string", Format: "date-time"},
				"approved_by":   {Type: "string"},
				"approved_at":   {Type: "string", Format: "date-time"},
			},
		},
		"TestCase": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"case_id":   {Type: "string", Pattern: `^OQ-\d{3}$`, Example: "OQ-001"},
				"title":     {Type: "string"},
				"objective": {Type: "string"},
				"prerequisites": {
					Type:  "array",
					Items: &openapi.Schema{Type: "string"},
				},
				"steps": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"number":          {Type: "integer"},
							"action":          {Type: "string"},
							"expected_result": {Type: "string"},
						},
					},
				},
				"acceptance_criteria": {
					Type:  "array",
					Items: &openapi.Schema{Type: "string"},
				},
				"requirement_refs": {
					Type:  "array",
					Items: &openapi.Schema{Type: "string"},
				},
				"risk_level": {Type: "string", Enum: []any{"low", "medium", "high"}},
			},
		},
		"Prompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"name":         {Type: "string", Example: "detailed-generate"},
				"stage":        {Type: "string", Enum: []any{"generate", "refine"}},
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
				"active":       {Type: "boolean"},
			},
		},
	}
}

func addDocumentPaths(spec *openapi.Spec) {
	tag := []string{"documents"}
	spec.Paths["/documents"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List documents",
			Tags:       tag,
			Parameters: listParams("status", "filename"),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged documents", "Document"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Upload a URS document",
			Description: "Multipart upload with title, version, source_system, and file fields.",
			Tags:        tag,
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created document", "Document"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
	spec.Paths["/documents/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search documents",
			Tags:        tag,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged documents", "Document"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/documents/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a document",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document", "Document"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a document",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/documents/{id}/content"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Download document content",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				200: {Description: "Raw document bytes"},
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
	spec.Paths["/documents/{id}/status"] = &openapi.PathItem{
		Put: &openapi.Operation{
			Summary:    "Transition document status",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated document", "Document"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addCategorizationPaths(spec *openapi.Spec) {
	tag := []string{"categorizations"}
	spec.Paths["/categorizations"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List categorizations",
			Tags:       tag,
			Parameters: listParams("category", "document_id", "requires_review", "validated_by"),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged categorizations", "Categorization"),
			},
		},
	}
	spec.Paths["/categorizations/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search categorizations",
			Tags:        tag,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged categorizations", "Categorization"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/categorizations/errors"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List recorded categorization errors",
			Tags:       tag,
			Parameters: listParams("document_id", "type", "severity", "strategy"),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged errors", "CategorizationError"),
			},
		},
	}
	spec.Paths["/categorizations/errors/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search recorded categorization errors",
			Tags:        tag,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged errors", "CategorizationError"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/categorizations/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a categorization",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Categorization ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Categorization", "Categorization"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Put: &openapi.Operation{
			Summary:    "Correct a categorization",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Categorization ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated categorization", "Categorization"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a categorization",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Categorization ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/categorizations/document/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find the categorization for a document",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Categorization", "Categorization"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/categorizations/{documentId}"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Categorize a document",
			Description: "Runs the categorization workflow. Returns 202 when the result requires human review.",
			Tags:        tag,
			Parameters:  []*openapi.Parameter{openapi.PathParam("documentId", "Document ID")},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Confident categorization", "Categorization"),
				202: openapi.ResponseJSON("Categorization pending human review", "Categorization"),
				404: openapi.ResponseRef("NotFound"),
				422: openapi.ResponseRef("Unprocessable"),
			},
		},
	}
	spec.Paths["/categorizations/{id}/validate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Record a human validation decision",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Categorization ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Validated categorization", "Categorization"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
}

func addTestSuitePaths(spec *openapi.Spec) {
	tag := []string{"testsuites"}
	spec.Paths["/testsuites"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List test suites",
			Tags:       tag,
			Parameters: listParams("document_id", "category", "approved_by"),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged test suites", "TestSuite"),
			},
		},
	}
	spec.Paths["/testsuites/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search test suites",
			Tags:        tag,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged test suites", "TestSuite"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/testsuites/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a test suite",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Test suite ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Test suite", "TestSuite"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a test suite",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Test suite ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/testsuites/document/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find the test suite for a document",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Test suite", "TestSuite"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/testsuites/{documentId}"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Generate an OQ test suite",
			Description: "Runs the generation workflow against the document's validated categorization.",
			Tags:        tag,
			Parameters:  []*openapi.Parameter{openapi.PathParam("documentId", "Document ID")},
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Generated test suite", "TestSuite"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
				422: openapi.ResponseRef("Unprocessable"),
			},
		},
	}
	spec.Paths["/testsuites/generate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary: "Generate test suites for a batch of documents",
			Tags:    tag,
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Batch results", "TestSuite"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/testsuites/{id}/approve"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Approve a test suite",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Test suite ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Approved test suite", "TestSuite"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
}

func addPromptPaths(spec *openapi.Spec) {
	tag := []string{"prompts"}
	spec.Paths["/prompts"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List prompt overrides",
			Tags:       tag,
			Parameters: listParams("stage", "name", "active"),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged prompts", "Prompt"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a prompt override",
			Tags:        tag,
			RequestBody: openapi.RequestBodyJSON("Prompt", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created prompt", "Prompt"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
	spec.Paths["/prompts/stages"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List overridable workflow stages",
			Tags:    tag,
			Responses: map[int]*openapi.Response{
				200: {Description: "Stage names"},
			},
		},
	}
	spec.Paths["/prompts/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search prompt overrides",
			Tags:        tag,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged prompts", "Prompt"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/prompts/{id}"] = &openapi.PathItem{
		Put: &openapi.Operation{
			Summary:    "Update a prompt override",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated prompt", "Prompt"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Get: &openapi.Operation{
			Summary:    "Find a prompt override",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a prompt override",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/prompts/{stage}/instructions"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Resolve effective stage instructions",
			Tags:    tag,
			Parameters: []*openapi.Parameter{{
				Name:     "stage",
				In:       "path",
				Required: true,
				Schema:   &openapi.Schema{Type: "string", Enum: []any{"generate", "refine"}},
			}},
			Responses: map[int]*openapi.Response{
				200: {Description: "Stage instructions"},
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/prompts/{stage}/spec"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Resolve effective stage output specification",
			Tags:    tag,
			Parameters: []*openapi.Parameter{{
				Name:     "stage",
				In:       "path",
				Required: true,
				Schema:   &openapi.Schema{Type: "string", Enum: []any{"generate", "refine"}},
			}},
			Responses: map[int]*openapi.Response{
				200: {Description: "Stage output specification"},
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/prompts/{id}/activate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Activate a prompt override",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Activated prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/prompts/{id}/deactivate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Deactivate a prompt override",
			Tags:       tag,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Deactivated prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func listParams(names ...string) []*openapi.Parameter {
	params := []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
		openapi.QueryParam("page_size", "integer", "Results per page", false),
	}
	for _, name := range names {
		params = append(params, openapi.QueryParam(name, "string", "Filter by "+name, false))
	}
	return params
}
