package nomad

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cuemby/converge/pkg/body"
	"github.com/cuemby/converge/pkg/client"
	"github.com/cuemby/converge/pkg/reconciler"
)

const gib = 1 << 30

// VolumeCapability is one access/attachment mode pair a volume must support
type VolumeCapability struct {
	AccessMode     string `yaml:"accessMode"`
	AttachmentMode string `yaml:"attachmentMode"`
}

// MountOptions are passed to the CSI plugin when the volume is mounted
type MountOptions struct {
	FSType     string   `yaml:"fsType,omitempty"`
	MountFlags []string `yaml:"mountFlags,omitempty"`
}

// CSIVolume is the desired state of a Nomad CSI volume. Volumes are created
// once and never modified.
type CSIVolume struct {
	ID           string             `yaml:"id"`
	Name         string             `yaml:"name"`
	Namespace    string             `yaml:"namespace,omitempty"`
	PluginID     string             `yaml:"pluginID"`
	Capabilities []VolumeCapability `yaml:"capabilities"`
	MountOptions *MountOptions      `yaml:"mountOptions,omitempty"`
	// CapacityGB is the minimum size in GiB. It is sent as
	// RequestedCapacityMin and not compared, since plugins round it up.
	CapacityGB *int              `yaml:"capacityGB,omitempty"`
	Parameters map[string]string `yaml:"parameters,omitempty"`
}

func (v CSIVolume) validate() error {
	for field, value := range map[string]string{"id": v.ID, "name": v.Name, "pluginID": v.PluginID} {
		if err := required(KindCSIVolume, field, value); err != nil {
			return err
		}
	}
	if len(v.Capabilities) == 0 {
		return fmt.Errorf("%s: at least one capability is required", KindCSIVolume)
	}
	for _, c := range v.Capabilities {
		if c.AccessMode == "" || c.AttachmentMode == "" {
			return fmt.Errorf("%s: capabilities need accessMode and attachmentMode", KindCSIVolume)
		}
	}
	return nil
}

func (v CSIVolume) body() body.Body {
	caps := make([]any, 0, len(v.Capabilities))
	for _, c := range v.Capabilities {
		caps = append(caps, body.Body{
			"AccessMode":     c.AccessMode,
			"AttachmentMode": c.AttachmentMode,
		})
	}

	b := body.Body{
		"ID":                    v.ID,
		"Name":                  v.Name,
		"Namespace":             namespaceOrDefault(v.Namespace),
		"PluginID":              v.PluginID,
		"RequestedCapabilities": caps,
		"Parameters":            v.Parameters,
	}
	if v.MountOptions != nil {
		b["MountOptions"] = body.Body{
			"FSType":     body.NonZero(v.MountOptions.FSType),
			"MountFlags": v.MountOptions.MountFlags,
		}
	}
	if v.CapacityGB != nil {
		b["RequestedCapacityMin"] = int64(*v.CapacityGB) * gib
	}
	return b
}

// ReconcileCSIVolume creates or deletes a volume. An existing volume that
// differs from v is reported as mismatched and left untouched.
func ReconcileCSIVolume(ctx context.Context, c *client.Client, state reconciler.State, v CSIVolume) (*reconciler.Result, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	return reconciler.Reconcile(ctx, reconciler.Request{
		Kind:      KindCSIVolume,
		Name:      v.ID,
		ResultKey: "volume",
		State:     state,
		Resource:  &csiVolume{c: c, id: v.ID, namespace: namespaceOrDefault(v.Namespace)},
		Desired:   v.body(),
		Exclude:   []string{"RequestedCapacityMin"},
		Immutable: true,
	})
}

type csiVolume struct {
	c         *client.Client
	id        string
	namespace string
}

func (r *csiVolume) path(suffix string) string {
	return "/v1/volume/csi/" + url.PathEscape(r.id) + suffix
}

func (r *csiVolume) query() url.Values {
	return url.Values{"namespace": []string{r.namespace}}
}

func (r *csiVolume) Lookup(ctx context.Context) (reconciler.Object, error) {
	return r.c.Object(ctx, client.Request{
		Method: http.MethodGet,
		Path:   r.path(""),
		Query:  r.query(),
		Ignore: []int{http.StatusNotFound},
	})
}

func (r *csiVolume) Create(ctx context.Context, desired body.Body) (reconciler.Object, error) {
	if _, err := r.c.Do(ctx, client.Request{
		Method:     http.MethodPut,
		Path:       r.path("/create"),
		Query:      r.query(),
		Body:       map[string]any{"Volumes": []any{desired}},
		ExpectJSON: true,
	}); err != nil {
		return nil, err
	}
	return readBack(ctx, r, "volume "+r.id)
}

func (r *csiVolume) Update(context.Context, reconciler.Object, body.Body) (reconciler.Object, error) {
	return nil, fmt.Errorf("csi volume %s cannot be modified", r.id)
}

func (r *csiVolume) Delete(ctx context.Context, _ reconciler.Object) error {
	_, err := r.c.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   r.path("/delete"),
		Query:  r.query(),
		Ignore: []int{http.StatusNotFound},
	})
	return err
}
