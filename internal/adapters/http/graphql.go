package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	poiType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PointOfInterest",
		Fields: graphql.Fields{
			"id":                   &graphql.Field{Type: graphql.Int},
			"lat":                  &graphql.Field{Type: graphql.Float},
			"lng":                  &graphql.Field{Type: graphql.Float},
			"description":          &graphql.Field{Type: graphql.String},
			"enhanced_description": &graphql.Field{Type: graphql.String},
			"created_at":           &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pois": &graphql.Field{
				Type:        graphql.NewList(poiType),
				Description: "All points of interest, or those inside a circle when lat/lng are given",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.Float},
					"lng":    &graphql.ArgumentConfig{Type: graphql.Float},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, hasLat := p.Args["lat"].(float64)
					lng, hasLng := p.Args["lng"].(float64)
					if !hasLat || !hasLng {
						return deps.POIs.List(p.Context)
					}
					radius := p.Args["radius"].(float64)
					return deps.POIs.Within(p.Context, lat, lng, radius)
				},
			},
			"search": &graphql.Field{
				Type:        graphql.String,
				Description: "Answer a query using the POIs around the origin, rendered as HTML",
				Args: graphql.FieldConfigArgument{
					"query":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":    &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"lng":    &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.Search(p.Context,
						p.Args["query"].(string),
						p.Args["lat"].(float64),
						p.Args["lng"].(float64),
						p.Args["radius"].(float64))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
