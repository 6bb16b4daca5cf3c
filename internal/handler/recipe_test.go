package handler

import (
	"fmt"
	"net/http"
	"slices"
	"testing"

	"github.com/recipebox/recipebox/internal/handler/dto"
)

func TestRecipeCreate_Detail(t *testing.T) {
	env := newTestEnv(t, "u1")
	salt := env.ingredient(t, "u1", "Salt")
	beef := env.ingredient(t, "u1", "Beef")

	body := fmt.Sprintf(`{"title":"Stew","time_minutes":90,"price":"12.5","ingredients":["%s","%s"]}`, salt.ID, beef.ID)
	rec := env.doJSON(t, "u1", http.MethodPost, "/recipes", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}

	got := decode[dto.RecipeDetailResponse](t, rec)
	if got.Title != "Stew" || got.TimeMinutes != 90 || got.Price != "12.50" {
		t.Errorf("recipe = %+v", got)
	}
	if want := []string{"Beef", "Salt"}; !slices.Equal(names(got.Ingredients), want) {
		t.Errorf("ingredients = %v, want %v", names(got.Ingredients), want)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("tags = %v, want empty array", got.Tags)
	}

	rec = env.doJSON(t, "u1", http.MethodGet, "/recipes/"+got.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if fetched := decode[dto.RecipeDetailResponse](t, rec); fetched.ID != got.ID || fetched.Price != "12.50" {
		t.Errorf("fetched = %+v", fetched)
	}
}

func TestRecipeCreate_FieldErrors(t *testing.T) {
	env := newTestEnv(t, "u1", "u2")
	foreign := env.ingredient(t, "u2", "Saffron")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"time_minutes":5,"price":"1.00"}`, "title"},
		{"bad price", `{"title":"x","time_minutes":5,"price":"cheap"}`, "price"},
		{"too many digits", `{"title":"x","time_minutes":5,"price":"1234.00"}`, "price"},
		{"text minutes", `{"title":"x","time_minutes":"soon","price":"1.00"}`, "time_minutes"},
		{"zero minutes", `{"title":"x","time_minutes":0,"price":"1.00"}`, "time_minutes"},
		{"minutes overflow", `{"title":"x","time_minutes":3000000000,"price":"1.00"}`, "time_minutes"},
		{"null character in title", `{"title":"a\u0000b","time_minutes":5,"price":"1.00"}`, "title"},
		{"other users ingredient", `{"title":"x","time_minutes":5,"price":"1.00","ingredients":["` + foreign.ID + `"]}`, "ingredients"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, "u1", http.MethodPost, "/recipes", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
			body := decode[dto.ErrorResponse](t, rec)
			if len(body.Fields[tt.field]) == 0 {
				t.Errorf("fields = %v, want an error on %s", body.Fields, tt.field)
			}
		})
	}

	rec := env.doJSON(t, "u1", http.MethodGet, "/recipes", "")
	if got := decode[[]dto.RecipeResponse](t, rec); len(got) != 0 {
		t.Errorf("invalid requests stored %d recipes", len(got))
	}
}

func TestRecipeGet_OtherUser(t *testing.T) {
	env := newTestEnv(t, "u1", "u2")
	recipe := env.recipe(t, "u2", "Secret sauce")

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		rec := env.doJSON(t, "u1", method, "/recipes/"+recipe.ID, `{"title":"mine"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", method, rec.Code)
			continue
		}
		if body := decode[dto.ErrorResponse](t, rec); body.Code != "RECIPE_NOT_FOUND" {
			t.Errorf("%s code = %s", method, body.Code)
		}
	}
}

func TestRecipeUpdate_PartialAndFull(t *testing.T) {
	env := newTestEnv(t, "u1")
	garlic := env.ingredient(t, "u1", "Garlic")
	recipe := env.recipe(t, "u1", "Soup", garlic.ID)

	rec := env.doJSON(t, "u1", http.MethodPatch, "/recipes/"+recipe.ID, `{"title":"Garlic soup"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d (%s)", rec.Code, rec.Body.String())
	}
	patched := decode[dto.RecipeDetailResponse](t, rec)
	if patched.Title != "Garlic soup" || patched.TimeMinutes != 10 || patched.Price != "5.00" {
		t.Errorf("patched = %+v", patched)
	}
	if len(patched.Ingredients) != 1 {
		t.Errorf("patch dropped ingredients: %v", patched.Ingredients)
	}

	rec = env.doJSON(t, "u1", http.MethodPut, "/recipes/"+recipe.ID, `{"title":"Broth"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("incomplete put status = %d, want 400", rec.Code)
	}

	rec = env.doJSON(t, "u1", http.MethodPut, "/recipes/"+recipe.ID, `{"title":"Broth","time_minutes":"30","price":2,"ingredients":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d (%s)", rec.Code, rec.Body.String())
	}
	replaced := decode[dto.RecipeDetailResponse](t, rec)
	if replaced.Title != "Broth" || replaced.TimeMinutes != 30 || replaced.Price != "2.00" || len(replaced.Ingredients) != 0 {
		t.Errorf("replaced = %+v", replaced)
	}
}

func TestRecipeDelete(t *testing.T) {
	env := newTestEnv(t, "u1")
	recipe := env.recipe(t, "u1", "Toast")

	rec := env.doJSON(t, "u1", http.MethodDelete, "/recipes/"+recipe.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = env.doJSON(t, "u1", http.MethodGet, "/recipes/"+recipe.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("after delete status = %d, want 404", rec.Code)
	}
}

func TestRecipeList_Filter(t *testing.T) {
	env := newTestEnv(t, "u1")
	rice := env.ingredient(t, "u1", "Rice")
	beans := env.ingredient(t, "u1", "Beans")
	risotto := env.recipe(t, "u1", "Risotto", rice.ID)
	chili := env.recipe(t, "u1", "Chili", beans.ID)
	env.recipe(t, "u1", "Plain water")

	rec := env.doJSON(t, "u1", http.MethodGet, "/recipes", "")
	if got := decode[[]dto.RecipeResponse](t, rec); len(got) != 3 {
		t.Errorf("list = %d recipes, want 3", len(got))
	}

	rec = env.doJSON(t, "u1", http.MethodGet, "/recipes?ingredients="+rice.ID+","+beans.ID, "")
	got := decode[[]dto.RecipeResponse](t, rec)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	slices.Sort(ids)
	want := []string{risotto.ID, chili.ID}
	slices.Sort(want)
	if !slices.Equal(ids, want) {
		t.Errorf("filtered ids = %v, want %v", ids, want)
	}
	for _, r := range got {
		if r.ID == risotto.ID && !slices.Equal(r.Ingredients, []string{rice.ID}) {
			t.Errorf("risotto ingredients = %v", r.Ingredients)
		}
	}
}

func TestRecipe_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, "u1")

	rec := env.doJSON(t, "", http.MethodPost, "/recipes", `{"title":"x","time_minutes":1,"price":"1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
