/*
Package noderegistry tracks the address and availability of every page
server known to the controller.

It is a domain collaborator, not part of the reconciliation core: pkg/shard
never imports it directly, consuming only the narrow
shard.NodeAvailabilitySnapshot view over Availability. A background prober,
patterned on pkg/health's checker/status hysteresis (three consecutive
failures before a node is marked unhealthy, one success to recover),
periodically probes each registered node's status endpoint and updates its
availability accordingly.
*/
package noderegistry
