//go:build wgpu

package backend

import (
	"context"
	"fmt"

	"github.com/mwiater/flopsbench/internal/flops"
	"github.com/openfluke/webgpu/wgpu"
)

const wgpuWorkgroup = 16

// matmulWGSL computes C = A*B for row-major N x N float32 matrices.
const matmulWGSL = `
const N: u32 = %du;

@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> c: array<f32>;

@compute @workgroup_size(%d, %d)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
	let row = id.y;
	let col = id.x;
	if (row >= N || col >= N) {
		return;
	}
	var sum = 0.0;
	for (var k = 0u; k < N; k = k + 1u) {
		sum = sum + a[row * N + k] * b[k * N + col];
	}
	c[row * N + col] = sum;
}
`

func init() {
	Register[*wgpuMatrix](Info{
		Name:        "wgpu",
		Description: "WebGPU compute shader on the default high-performance adapter",
		Kind:        KindGPU,
	}, openWGPU)
}

type wgpuMatrix struct {
	buf        *wgpu.Buffer
	rows, cols int
}

type wgpuDevice struct {
	src       *uniformSource
	instance  *wgpu.Instance
	adapter   *wgpu.Adapter
	device    *wgpu.Device
	queue     *wgpu.Queue
	pipelines map[int]*wgpu.ComputePipeline
	operands  []*wgpu.Buffer
	last      *wgpu.Buffer
}

func openWGPU(_ context.Context, seed uint64) (flops.Device[*wgpuMatrix], error) {
	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	return &wgpuDevice{
		src:       newUniformSource(seed),
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     device.GetQueue(),
		pipelines: make(map[int]*wgpu.ComputePipeline),
	}, nil
}

func (d *wgpuDevice) Random(rows, cols int) (*wgpuMatrix, error) {
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "operand",
		Contents: wgpu.ToBytes(d.src.float32s(rows * cols)),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create operand buffer: %w", err)
	}
	d.operands = append(d.operands, buf)
	return &wgpuMatrix{buf: buf, rows: rows, cols: cols}, nil
}

func (d *wgpuDevice) pipeline(n int) (*wgpu.ComputePipeline, error) {
	if p, ok := d.pipelines[n]; ok {
		return p, nil
	}
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "matmul",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fmt.Sprintf(matmulWGSL, n, wgpuWorkgroup, wgpuWorkgroup),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compile matmul shader: %w", err)
	}
	defer module.Release()

	p, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "matmul",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create matmul pipeline: %w", err)
	}
	d.pipelines[n] = p
	return p, nil
}

func (d *wgpuDevice) MatMul(a, b *wgpuMatrix) (*wgpuMatrix, error) {
	if a.rows != a.cols || a.cols != b.rows || b.rows != b.cols {
		return nil, fmt.Errorf("wgpu kernel expects equal square operands, got %dx%d * %dx%d", a.rows, a.cols, b.rows, b.cols)
	}
	n := a.rows
	p, err := d.pipeline(n)
	if err != nil {
		return nil, err
	}

	out, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "product",
		Size:  uint64(n * n * float32Size),
		Usage: wgpu.BufferUsageStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create product buffer: %w", err)
	}

	layout := p.GetBindGroupLayout(0)
	defer layout.Release()
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: a.buf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: b.buf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: out, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		out.Release()
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	defer group.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		out.Release()
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	groups := uint32((n + wgpuWorkgroup - 1) / wgpuWorkgroup)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, group, nil)
	pass.DispatchWorkgroups(groups, groups, 1)
	pass.End()
	pass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		out.Release()
		return nil, fmt.Errorf("finish command buffer: %w", err)
	}
	defer cmd.Release()
	d.queue.Submit(cmd)

	if d.last != nil {
		d.last.Release()
	}
	d.last = out
	return &wgpuMatrix{buf: out, rows: n, cols: n}, nil
}

// Sync waits for every submitted command buffer to complete.
func (d *wgpuDevice) Sync() error {
	d.device.Poll(true, nil)
	return nil
}

func (d *wgpuDevice) Close() error {
	if d.last != nil {
		d.last.Release()
		d.last = nil
	}
	for _, buf := range d.operands {
		buf.Release()
	}
	d.operands = nil
	for _, p := range d.pipelines {
		p.Release()
	}
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
	return nil
}
