package models

// Category groups acronyms under a unique name
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CategoryRequest is the body of a category creation request
type CategoryRequest struct {
	Name string `json:"name"`
}

// AcronymCategoryPivot is a single acronym-category association
type AcronymCategoryPivot struct {
	ID         int `json:"id"`
	AcronymID  int `json:"acronymId"`
	CategoryID int `json:"categoryId"`
}

// AcronymWithUser is an acronym together with its public owner
type AcronymWithUser struct {
	Acronym
	User PublicUser `json:"user"`
}

// CategoryWithAcronyms is a category with every acronym attached to it
type CategoryWithAcronyms struct {
	Category
	Acronyms []AcronymWithUser `json:"acronyms"`
}

// CategoryPlan is the result of reconciling the current categories of an acronym
// against a desired list of names
type CategoryPlan struct {
	// ToAttach holds names that are desired but not yet attached
	ToAttach []string
	// ToDetach holds currently attached categories that are no longer desired
	ToDetach []Category
}

// Empty reports whether the plan has nothing to do
func (p CategoryPlan) Empty() bool {
	return len(p.ToAttach) == 0 && len(p.ToDetach) == 0
}
