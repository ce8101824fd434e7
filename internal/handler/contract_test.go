package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
)

func compileContract(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "contracts", name+".schema.json"))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func requireContract(t *testing.T, schema *jsonschema.Schema, raw []byte) {
	t.Helper()
	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestGroupContract(t *testing.T) {
	f := newAPIFixture(t)
	_, bearer := f.student(t, "S1")

	resp, env := f.do(t, http.MethodPost, "/api/v1/groups", bearer, dto.CreateGroupRequest{SemesterID: f.semester.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.raw))
	requireContract(t, compileContract(t, "group"), env.raw)
}

func TestCouncilContract(t *testing.T) {
	f := newAPIFixture(t)
	_, bearer := f.user(t, "Manager", models.RoleGraduationThesisManager)
	lecturer, _ := f.user(t, "Dr Member", models.RoleLecturer)

	resp, env := f.do(t, http.MethodPost, "/api/v1/councils", bearer, councilPayload(f.semester.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.raw))
	council := decode[dto.CouncilResponse](t, env.Data)

	resp, env = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/councils/%d/members", council.ID), bearer, dto.CouncilMemberRequest{
		Email: lecturer.Email,
		Role:  string(models.RoleCouncilMember),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(env.raw))
	requireContract(t, compileContract(t, "council"), env.raw)
}

func TestErrorContract(t *testing.T) {
	f := newAPIFixture(t)
	_, bearer := f.student(t, "S1")
	schema := compileContract(t, "error")

	_, env := f.do(t, http.MethodGet, "/api/v1/groups/999", bearer, nil)
	requireContract(t, schema, env.raw)

	_, env = f.do(t, http.MethodPost, "/api/v1/groups", bearer, map[string]interface{}{})
	requireContract(t, schema, env.raw)

	_, env = f.do(t, http.MethodGet, "/api/v1/groups/1", "", nil)
	requireContract(t, schema, env.raw)
}
