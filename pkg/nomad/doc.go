/*
Package nomad reconciles Nomad cluster resources through the Nomad HTTP API.

Supported kinds:

	NomadACLPolicy     ACL policy, found by name
	NomadACLToken      ACL token, found by accessor ID or by name
	NomadNamespace     namespace, found by name
	NomadACLBootstrap  one-time ACL bootstrap with the management token
	NomadCSIVolume     CSI volume, immutable once created
	NomadJob           HCL job, submitted only when the plan shows a diff
	NomadJobParse      read-only HCL to JSON conversion
	NomadScheduler     cluster scheduler configuration, always present

Policy and namespace writes return no body, so the object is read back after
every write and the result always carries what Nomad stored.

# Jobs

Jobs are the one kind where converge does not compare fields itself. The HCL is
parsed by Nomad, then planned with Diff enabled, and submitted only when the
plan's diff type is not "None". Both the plan diff and the submit response are
attached to the result.

	state    job exists   stopped   action
	present  any          any       plan, submit when diff
	absent   yes          no        stop (deregister)
	absent   yes          yes       none
	purged   yes          any       deregister with purge=true

# CSI Volumes

Nomad cannot modify a CSI volume after creation. A volume that exists but
differs from the manifest is left alone and reported with mismatched=true.
*/
package nomad
