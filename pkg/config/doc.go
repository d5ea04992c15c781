/*
Package config loads the controller's service configuration from a YAML
file, unmarshaled with gopkg.in/yaml.v3 onto a Default baseline so any
field the file omits keeps its default value.

It is a single flat document describing how the controller process itself
should run: where to persist state, how long to wait on reconcile RPCs,
how often to sweep for drift, where to listen, and which page servers to
seed the node registry with at startup.
*/
package config
