package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	estimateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TravelTimeEstimate",
		Fields: graphql.Fields{
			"distance_km":        &graphql.Field{Type: graphql.Float},
			"travel_time_sec":    &graphql.Field{Type: graphql.Float},
			"assumed_speed_km_s": &graphql.Field{Type: graphql.Float},
		},
	})

	stationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Station",
		Fields: graphql.Fields{
			"network":     &graphql.Field{Type: graphql.String},
			"code":        &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"elevation_m": &graphql.Field{Type: graphql.Float},
			"distance_km": &graphql.Field{Type: graphql.Float},
		},
	})

	travelTimeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TravelTime",
		Fields: graphql.Fields{
			"earthquake_coordinates": &graphql.Field{Type: geoPointType},
			"station_coordinates":    &graphql.Field{Type: geoPointType},
			"estimate":               &graphql.Field{Type: estimateType},
		},
	})

	arrivalType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ArrivalPrediction",
		Fields: graphql.Fields{
			"event_id":         &graphql.Field{Type: graphql.String},
			"station_id":       &graphql.Field{Type: graphql.String},
			"station_location": &graphql.Field{Type: geoPointType},
			"estimate":         &graphql.Field{Type: estimateType},
			"origin_time": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.ArrivalPrediction).OriginTime.Format(time.RFC3339Nano), nil
				},
			},
			"predicted_arrival": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.ArrivalPrediction).PredictedArrival.Format(time.RFC3339Nano), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"travelTime": &graphql.Field{
				Type:        travelTimeType,
				Description: "Estimate the P-wave travel time between an epicenter and a station",
				Args: graphql.FieldConfigArgument{
					"eq_lat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"eq_lon":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"sta_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"sta_lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"speed":   &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					eq := domain.GeoPoint{Lat: p.Args["eq_lat"].(float64), Lon: p.Args["eq_lon"].(float64)}
					sta := domain.GeoPoint{Lat: p.Args["sta_lat"].(float64), Lon: p.Args["sta_lon"].(float64)}
					speed := deps.TravelTime.DefaultSpeed()
					if v, ok := p.Args["speed"].(float64); ok {
						speed = v
					}
					est, err := deps.TravelTime.EstimateWithSpeed(p.Context, eq, sta, speed)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"earthquake_coordinates": eq,
						"station_coordinates":    sta,
						"estimate":               est,
					}, nil
				},
			},
			"station": &graphql.Field{
				Type:        stationType,
				Description: "Get a station by network and code",
				Args: graphql.FieldConfigArgument{
					"network": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"code":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Stations.Resolve(p.Context, p.Args["network"].(string), p.Args["code"].(string))
				},
			},
			"stations": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "Catalogued stations, nearest first when lat/lon are given",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":       &graphql.ArgumentConfig{Type: graphql.Float},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, hasLat := p.Args["lat"].(float64)
					lon, hasLon := p.Args["lon"].(float64)
					if !hasLat || !hasLon {
						return deps.Stations.List(p.Context)
					}
					center := domain.GeoPoint{Lat: lat, Lon: lon}
					return deps.Stations.FindNearby(p.Context, center, p.Args["radius_km"].(float64), p.Args["limit"].(int))
				},
			},
			"eventArrivals": &graphql.Field{
				Type:        graphql.NewList(arrivalType),
				Description: "Predicted P-wave arrivals of an event at every catalogued station",
				Args: graphql.FieldConfigArgument{
					"event_id":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "adhoc"},
					"lat":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"origin_time": &graphql.ArgumentConfig{Type: graphql.String},
					"speed":       &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin := time.Now().UTC()
					if s, ok := p.Args["origin_time"].(string); ok && s != "" {
						t, err := time.Parse(time.RFC3339, s)
						if err != nil {
							return nil, err
						}
						origin = t
					}
					event := &domain.Event{
						ID:         p.Args["event_id"].(string),
						OriginTime: origin,
						Location:   domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)},
					}
					if err := event.Location.Validate(); err != nil {
						return nil, err
					}
					speed := deps.TravelTime.DefaultSpeed()
					if v, ok := p.Args["speed"].(float64); ok {
						speed = v
					}
					return deps.Predictions.ArrivalsForEvent(p.Context, event, speed)
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
