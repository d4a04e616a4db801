package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestEntriesSortedByBinding(t *testing.T) {
	buf := &wgpu.Buffer{}
	sampler := &wgpu.Sampler{}
	p := NewBindGroupProvider("atlas", WithGroup(1), WithSampler(1, sampler), WithBuffer(2, buf))

	if p.Label() != "atlas" || p.Group() != 1 {
		t.Fatalf("label/group = %q/%d", p.Label(), p.Group())
	}
	if p.Sampler(1) != sampler || p.Buffer(2) != buf {
		t.Fatal("options did not store resources")
	}

	entries := p.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Binding != 1 || entries[0].Sampler != sampler {
		t.Errorf("entry 0 = %+v, want the sampler at binding 1", entries[0])
	}
	if entries[1].Binding != 2 || entries[1].Buffer != buf || entries[1].Size != wgpu.WholeSize {
		t.Errorf("entry 1 = %+v, want the whole buffer at binding 2", entries[1])
	}
}

func TestEmptyProvider(t *testing.T) {
	p := NewBindGroupProvider("empty")
	if p.Group() != 0 || p.BindGroup() != nil || len(p.Entries()) != 0 {
		t.Error("new provider is not empty")
	}
	if p.Texture(0) != nil || p.TextureView(0) != nil {
		t.Error("unset texture binding returned a value")
	}
	// releasing an empty provider must be safe
	p.Release()
}
