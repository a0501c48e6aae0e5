// Package config loads the configuration of the ontodia-search binary.
//
// A Loader starts from Default, merges each file layer (YAML or JSON, by
// extension) and then applies ONTODIA_* environment variables. Only fields
// present in a layer override earlier values.
//
//	loader := config.NewLoader()
//	loader.AddLayer("ontodia.yaml")
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// A minimal file:
//
//	endpoint: http://localhost:3030/ds/sparql
//	dialect: owl-stats
//	timeout: 30s
//	image_properties:
//	  - http://xmlns.com/foaf/0.1/img
//
// Durations are Go duration strings. Validation failures are invalid-class
// errors wrapping errors.ErrInvalidConfig or errors.ErrMissingConfig.
package config
