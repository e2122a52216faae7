package ibl

import (
	"fmt"
	"strings"
)

// ── Shaders ───────────────────────────────────────────────────────────────────
//
// GLSL 4.10 sources for the four bake passes. Tunables are injected as
// #define lines after the #version directive. uFlipY is set by the device to
// store the view's top row first when a program renders cube faces.

// captureVertSrc transforms the capture cube and hands the object-space
// position to the fragment stage as a sampling direction.
const captureVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

layout(std140) uniform Camera {
    mat4 view;
    mat4 projection;
    vec4 cameraPosition;
};

uniform float uFlipY;

out vec3 fragDir;

void main() {
    fragDir = inPosition;
    gl_Position = projection * view * vec4(inPosition, 1.0);
    gl_Position.y *= uFlipY;
}
`

// fullscreenVertSrc passes clip-space positions through unchanged.
const fullscreenVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec2 inUV;

uniform float uFlipY;

out vec2 fragUV;

void main() {
    fragUV = inUV;
    gl_Position = vec4(inPosition.xy, 0.0, 1.0);
    gl_Position.y *= uFlipY;
}
`

const rectToCubeFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform sampler2D equirectMap;

const float PI = 3.14159265359;

vec2 equirectUV(vec3 d) {
    return vec2(0.5 + atan(d.x, d.z) / (2.0 * PI),
                0.5 - asin(clamp(d.y, -1.0, 1.0)) / PI);
}

void main() {
    vec3 d = normalize(fragDir);
    outColor = vec4(texture(equirectMap, equirectUV(d)).rgb, 1.0);
}
`

// irradianceFragSrc integrates cosine-weighted radiance over the hemisphere
// around the fragment direction on a regular (phi, theta) grid.
const irradianceFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform samplerCube environmentMap;

const float PI = 3.14159265359;

void main() {
    vec3 N = normalize(fragDir);
    vec3 up = abs(N.y) < 0.999 ? vec3(0.0, 1.0, 0.0) : vec3(0.0, 0.0, 1.0);
    vec3 right = normalize(cross(up, N));
    up = normalize(cross(N, right));

    vec3 irradiance = vec3(0.0);
    float nrSamples = 0.0;
    for (float phi = 0.0; phi < 2.0 * PI; phi += SAMPLE_DELTA) {
        for (float theta = 0.0; theta < 0.5 * PI; theta += SAMPLE_DELTA) {
            vec3 t = vec3(sin(theta) * cos(phi), sin(theta) * sin(phi), cos(theta));
            vec3 sampleVec = t.x * right + t.y * up + t.z * N;
            irradiance += texture(environmentMap, sampleVec).rgb * cos(theta) * sin(theta);
            nrSamples++;
        }
    }
    outColor = vec4(PI * irradiance / nrSamples, 1.0);
}
`

// ggxSrc is shared by the prefilter and BRDF programs.
const ggxSrc = `
const float PI = 3.14159265359;

float radicalInverse(uint bits) {
    return float(bitfieldReverse(bits)) * 2.3283064365386963e-10;
}

vec2 hammersley(uint i, uint n) {
    return vec2(float(i) / float(n), radicalInverse(i));
}

vec3 importanceSampleGGX(vec2 xi, vec3 N, float roughness) {
    float a = roughness * roughness;
    float phi = 2.0 * PI * xi.x;
    float cosTheta = sqrt((1.0 - xi.y) / (1.0 + (a * a - 1.0) * xi.y));
    float sinTheta = sqrt(max(1.0 - cosTheta * cosTheta, 0.0));

    vec3 up = abs(N.z) < 0.999 ? vec3(0.0, 0.0, 1.0) : vec3(1.0, 0.0, 0.0);
    vec3 tangent = normalize(cross(up, N));
    vec3 bitangent = cross(N, tangent);

    return normalize(tangent * cos(phi) * sinTheta + bitangent * sin(phi) * sinTheta + N * cosTheta);
}

float distributionGGX(float NdotH, float roughness) {
    float a = roughness * roughness;
    float a2 = a * a;
    float d = NdotH * NdotH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}
`

// prefilterFragSrc convolves the radiance cubemap with a GGX lobe, assuming
// N = V = R. Samples with a low pdf read from a coarser source mip.
const prefilterFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform samplerCube environmentMap;

layout(std140) uniform Prefilter {
    vec4 prefilterParams; // x = roughness, y = source face size
};
` + ggxSrc + `
void main() {
    vec3 N = normalize(fragDir);
    float roughness = prefilterParams.x;
    float res = max(prefilterParams.y, 1.0);
    float saTexel = 4.0 * PI / (6.0 * res * res);

    vec3 color = vec3(0.0);
    float weight = 0.0;
    for (uint i = 0u; i < uint(SAMPLE_COUNT); ++i) {
        vec2 xi = hammersley(i, uint(SAMPLE_COUNT));
        vec3 H = importanceSampleGGX(xi, N, roughness);
        float NdotH = dot(N, H);
        vec3 L = normalize(2.0 * NdotH * H - N);
        float NdotL = dot(N, L);
        if (NdotL > 0.0) {
            float lod = 0.0;
            if (roughness > 0.0) {
                NdotH = max(NdotH, 0.0);
                float pdf = distributionGGX(NdotH, roughness) * NdotH / (4.0 * NdotH) + 0.0001;
                float saSample = 1.0 / (float(SAMPLE_COUNT) * pdf + 0.0001);
                lod = 0.5 * log2(saSample / saTexel);
            }
            color += textureLod(environmentMap, L, lod).rgb * NdotL;
            weight += NdotL;
        }
    }
    if (weight > 0.0) {
        color /= weight;
    }
    outColor = vec4(color, 1.0);
}
`

// brdfFragSrc integrates the split-sum scale and bias for (NdotV, roughness)
// read from the texture coordinate.
const brdfFragSrc = `
#version 410 core
in vec2 fragUV;
out vec4 outColor;
` + ggxSrc + `
float geometrySchlickGGX(float NdotX, float roughness) {
    float k = roughness * roughness / 2.0;
    return NdotX / (NdotX * (1.0 - k) + k);
}

void main() {
    float NdotV = fragUV.x;
    float roughness = fragUV.y;
    vec3 V = vec3(sqrt(max(1.0 - NdotV * NdotV, 0.0)), 0.0, NdotV);
    vec3 N = vec3(0.0, 0.0, 1.0);

    float A = 0.0;
    float B = 0.0;
    for (uint i = 0u; i < uint(SAMPLE_COUNT); ++i) {
        vec2 xi = hammersley(i, uint(SAMPLE_COUNT));
        vec3 H = importanceSampleGGX(xi, N, roughness);
        float VdotH = dot(V, H);
        vec3 L = normalize(2.0 * VdotH * H - V);

        float NdotL = max(L.z, 0.0);
        float NdotH = max(H.z, 0.0);
        VdotH = max(VdotH, 0.0);
        if (NdotL > 0.0 && NdotH > 0.0) {
            float G = geometrySchlickGGX(NdotV, roughness) * geometrySchlickGGX(NdotL, roughness);
            float GVis = G * VdotH / (NdotH * NdotV);
            float Fc = pow(1.0 - VdotH, 5.0);
            A += (1.0 - Fc) * GVis;
            B += Fc * GVis;
        }
    }
    outColor = vec4(A / float(SAMPLE_COUNT), B / float(SAMPLE_COUNT), 0.0, 1.0);
}
`

// withDefines inserts "#define name value" lines after the #version line.
// defs alternates names and values.
func withDefines(src string, defs ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(defs); i += 2 {
		fmt.Fprintf(&b, "#define %v %v\n", defs[i], defs[i+1])
	}
	src = strings.TrimLeft(src, "\n")
	version, rest, ok := strings.Cut(src, "\n")
	if !ok || !strings.HasPrefix(version, "#version") {
		return b.String() + src
	}
	return version + "\n" + b.String() + rest
}

// glslFloat formats v so GLSL parses it as a float literal.
func glslFloat(v float32) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
