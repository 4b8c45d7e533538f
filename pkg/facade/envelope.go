package facade

// Envelope is the json object main returns for a forwarded route.
type Envelope map[string]any

// mergeEnvelope builds a new envelope: main's own fields are inserted first, then every
// forwarded field. A later insertion wins, so on a key collision the auxiliary value
// is what the client sees. The two version keys are named differently so that they
// never collide.
func mergeEnvelope(version string, forwarded map[string]any) Envelope {

	env := make(Envelope, len(forwarded)+1)
	env[VersionKey] = version

	for k, v := range forwarded {
		env[k] = v
	}

	return env
}

// errorBody is what a data route forwards in place of the auxiliary body when the
// call produced no usable json object.
func errorBody(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
