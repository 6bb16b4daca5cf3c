package repository

import "fmt"

// ListFilter narrows an ingredient or tag listing.
type ListFilter struct {
	UserID string
	// AssignedOnly keeps only rows referenced by at least one of the user's recipes.
	AssignedOnly bool
}

// namedTable describes a user-owned name table and the recipe join table referencing it.
type namedTable struct {
	table     string
	joinTable string
	joinCol   string
}

var (
	ingredientTable = namedTable{table: "ingredients", joinTable: "recipe_ingredients", joinCol: "ingredient_id"}
	tagTable        = namedTable{table: "tags", joinTable: "recipe_tags", joinCol: "tag_id"}
)

func (t namedTable) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`, t.table)
}

// listQuery returns the owner-scoped listing ordered by name descending.
// EXISTS keeps a row once no matter how many recipes reference it.
func (t namedTable) listQuery(assignedOnly bool) string {
	query := fmt.Sprintf(`
		SELECT n.id, n.user_id, n.name, n.created_at
		FROM %s n
		WHERE n.user_id = $1`, t.table)

	if assignedOnly {
		query += fmt.Sprintf(`
		  AND EXISTS (
			SELECT 1
			FROM %s j
			JOIN recipes r ON r.id = j.recipe_id
			WHERE j.%s = n.id AND r.user_id = $1
		  )`, t.joinTable, t.joinCol)
	}

	return query + `
		ORDER BY n.name DESC, n.id DESC`
}

// byRecipeQuery returns the rows a recipe references, ordered by name.
func (t namedTable) byRecipeQuery() string {
	return fmt.Sprintf(`
		SELECT n.id, n.user_id, n.name, n.created_at
		FROM %s n
		JOIN %s j ON j.%s = n.id
		WHERE j.recipe_id = $1
		ORDER BY n.name, n.id`, t.table, t.joinTable, t.joinCol)
}

// linkQuery attaches the caller's own rows among the given ids to a recipe.
// Ids owned by other users or unknown ids are silently skipped; callers compare
// RowsAffected with the number of distinct ids.
func (t namedTable) linkQuery() string {
	return fmt.Sprintf(`
		INSERT INTO %s (recipe_id, %s)
		SELECT $1, n.id FROM %s n
		WHERE n.user_id = $2 AND n.id = ANY($3)`, t.joinTable, t.joinCol, t.table)
}

func (t namedTable) unlinkQuery() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, t.joinTable)
}
