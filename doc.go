// Package quarry is a generic service layer over Bun repositories with
// lifecycle hooks and rule-driven search.
//
//	users := quarry.NewService[User](
//		quarry.WithSearchRules[User](map[string]any{
//			"q":      "name:like|email:like",
//			"status": "=",
//		}),
//	)
//	page, err := users.Paginate(ctx, src, nil, map[string]string{"id": "desc"})
package quarry
