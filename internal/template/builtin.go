package template

// 内置的四个视觉风格。标记源只产出 <main> 片段，
// 文档外壳与样式内联由渲染管线负责。

const modernSource = `<main class="cv modern">
<header>
  <h1>{{.PersonalInfo.FullName}}</h1>
  <p class="contact">
    <span>{{.PersonalInfo.Email}}</span>
    {{if .PersonalInfo.Phone}}<span>{{.PersonalInfo.Phone}}</span>{{end}}
    {{if .PersonalInfo.Location}}<span>{{.PersonalInfo.Location}}</span>{{end}}
  </p>
  <p class="links">
    {{if .PersonalInfo.Website}}<a href="{{.PersonalInfo.Website}}">{{.PersonalInfo.Website}}</a>{{end}}
    {{if .PersonalInfo.LinkedIn}}<a href="{{.PersonalInfo.LinkedIn}}">LinkedIn</a>{{end}}
    {{if .PersonalInfo.GitHub}}<a href="{{.PersonalInfo.GitHub}}">GitHub</a>{{end}}
  </p>
  {{if .PersonalInfo.Summary}}<p class="summary">{{.PersonalInfo.Summary}}</p>{{end}}
</header>
{{if .Experience}}<section class="experience">
  <h2>Experience</h2>
  {{range .Experience}}<article>
    <h3>{{.Position}} · {{.Company}}</h3>
    <p class="dates">{{.StartDate}}{{if .EndDate}} – {{.EndDate}}{{else}} – present{{end}}</p>
    {{if .Description}}<p>{{.Description}}</p>{{end}}
    {{if .Highlights}}<ul>{{range .Highlights}}<li>{{.}}</li>{{end}}</ul>{{end}}
  </article>{{end}}
</section>{{end}}
{{if .Education}}<section class="education">
  <h2>Education</h2>
  {{range .Education}}<article>
    <h3>{{.Institution}}</h3>
    <p>{{.Degree}}{{if .Field}}, {{.Field}}{{end}}</p>
    {{if .EndDate}}<p class="dates">{{.EndDate}}</p>{{end}}
  </article>{{end}}
</section>{{end}}
{{if .Skills}}<section class="skills">
  <h2>Skills</h2>
  {{range .Skills}}<p><strong>{{.Category}}</strong>: {{join .Items ", "}}</p>{{end}}
</section>{{end}}
{{if .Projects}}<section class="projects">
  <h2>Projects</h2>
  {{range .Projects}}<article>
    <h3>{{.Name}}</h3>
    {{if .Description}}<p>{{.Description}}</p>{{end}}
    {{if .Highlights}}<ul>{{range .Highlights}}<li>{{.}}</li>{{end}}</ul>{{end}}
  </article>{{end}}
</section>{{end}}
{{if .Certifications}}<section class="certifications">
  <h2>Certifications</h2>
  <ul>{{range .Certifications}}<li>{{.Name}}{{if .Issuer}} — {{.Issuer}}{{end}}{{if .Date}} ({{.Date}}){{end}}</li>{{end}}</ul>
</section>{{end}}
{{if .Languages}}<section class="languages">
  <h2>Languages</h2>
  <p>{{range $i, $l := .Languages}}{{if $i}}, {{end}}{{$l.Name}}{{if $l.Fluency}} ({{$l.Fluency}}){{end}}{{end}}</p>
</section>{{end}}
{{if .Volunteer}}<section class="volunteer">
  <h2>Volunteering</h2>
  {{range .Volunteer}}<p><strong>{{.Organization}}</strong>{{if .Role}} — {{.Role}}{{end}}</p>{{end}}
</section>{{end}}
{{if .Publications}}<section class="publications">
  <h2>Publications</h2>
  <ul>{{range .Publications}}<li>{{.Title}}{{if .Publisher}}, {{.Publisher}}{{end}}{{if .Date}} ({{.Date}}){{end}}</li>{{end}}</ul>
</section>{{end}}
{{if .Awards}}<section class="awards">
  <h2>Awards</h2>
  <ul>{{range .Awards}}<li>{{.Title}}{{if .Issuer}} — {{.Issuer}}{{end}}</li>{{end}}</ul>
</section>{{end}}
</main>`

const modernCSS = `
body { font-family: 'Helvetica Neue', Arial, sans-serif; color: {primary}; margin: 0; }
.cv.modern { max-width: 760px; margin: 0 auto; padding: 48px 40px; }
.cv.modern header h1 { font-size: 28pt; margin: 0 0 4px; color: {primary}; }
.cv.modern .contact span + span::before { content: ' · '; color: {secondary}; }
.cv.modern .links a { color: {accent}; margin-right: 12px; text-decoration: none; }
.cv.modern .summary { color: {secondary}; }
.cv.modern h2 { font-size: 12pt; text-transform: uppercase; letter-spacing: 2px;
  color: {accent}; border-bottom: 2px solid {accent}; padding-bottom: 4px; }
.cv.modern h3 { font-size: 11pt; margin: 10px 0 2px; }
.cv.modern .dates { color: {secondary}; font-size: 9pt; margin: 0 0 4px; }
.cv.modern ul { margin: 4px 0; padding-left: 18px; }
@page { size: A4; margin: 0; }
`

const classicSource = `<main class="cv classic">
<header>
  <h1>{{.PersonalInfo.FullName}}</h1>
  <p class="contact">{{.PersonalInfo.Email}}{{if .PersonalInfo.Phone}} | {{.PersonalInfo.Phone}}{{end}}{{if .PersonalInfo.Location}} | {{.PersonalInfo.Location}}{{end}}</p>
  {{if .PersonalInfo.Summary}}<p class="summary">{{.PersonalInfo.Summary}}</p>{{end}}
</header>
{{if .Experience}}<section>
  <h2>Professional Experience</h2>
  {{range .Experience}}<article>
    <p class="role"><strong>{{.Position}}</strong>, {{.Company}}
      <span class="dates">{{.StartDate}}{{if .EndDate}} – {{.EndDate}}{{end}}</span></p>
    {{if .Description}}<p>{{.Description}}</p>{{end}}
    {{if .Highlights}}<ul>{{range .Highlights}}<li>{{.}}</li>{{end}}</ul>{{end}}
  </article>{{end}}
</section>{{end}}
{{if .Education}}<section>
  <h2>Education</h2>
  {{range .Education}}<p><strong>{{.Institution}}</strong>{{if .Degree}}, {{.Degree}}{{end}}{{if .Field}} in {{.Field}}{{end}}</p>{{end}}
</section>{{end}}
{{if .Skills}}<section>
  <h2>Skills</h2>
  {{range .Skills}}<p>{{.Category}}: {{join .Items ", "}}</p>{{end}}
</section>{{end}}
{{if .Certifications}}<section>
  <h2>Certifications</h2>
  <ul>{{range .Certifications}}<li>{{.Name}}{{if .Issuer}}, {{.Issuer}}{{end}}</li>{{end}}</ul>
</section>{{end}}
{{if .Languages}}<section>
  <h2>Languages</h2>
  <p>{{range $i, $l := .Languages}}{{if $i}}; {{end}}{{$l.Name}}{{if $l.Fluency}} — {{$l.Fluency}}{{end}}{{end}}</p>
</section>{{end}}
{{if .Publications}}<section>
  <h2>Publications</h2>
  <ul>{{range .Publications}}<li>{{.Title}}{{if .Publisher}}. {{.Publisher}}{{end}}</li>{{end}}</ul>
</section>{{end}}
{{if .Awards}}<section>
  <h2>Honors &amp; Awards</h2>
  <ul>{{range .Awards}}<li>{{.Title}}</li>{{end}}</ul>
</section>{{end}}
</main>`

const classicCSS = `
body { font-family: Georgia, 'Times New Roman', serif; color: {primary}; margin: 0; }
.cv.classic { max-width: 720px; margin: 0 auto; padding: 56px 48px; }
.cv.classic header { text-align: center; border-bottom: 1px solid {primary}; padding-bottom: 12px; }
.cv.classic h1 { font-size: 24pt; margin: 0; letter-spacing: 1px; }
.cv.classic .contact { color: {secondary}; }
.cv.classic h2 { font-size: 13pt; font-variant: small-caps; border-bottom: 1px solid {secondary}; }
.cv.classic .dates { float: right; color: {secondary}; font-size: 10pt; }
.cv.classic ul { margin: 4px 0; padding-left: 20px; }
@page { size: A4; margin: 0; }
`

const creativeSource = `<main class="cv creative">
<aside>
  <h1>{{.PersonalInfo.FullName}}</h1>
  <ul class="contact">
    <li>{{.PersonalInfo.Email}}</li>
    {{if .PersonalInfo.Phone}}<li>{{.PersonalInfo.Phone}}</li>{{end}}
    {{if .PersonalInfo.Location}}<li>{{.PersonalInfo.Location}}</li>{{end}}
    {{if .PersonalInfo.Website}}<li><a href="{{.PersonalInfo.Website}}">{{.PersonalInfo.Website}}</a></li>{{end}}
    {{if .PersonalInfo.LinkedIn}}<li><a href="{{.PersonalInfo.LinkedIn}}">LinkedIn</a></li>{{end}}
    {{if .PersonalInfo.GitHub}}<li><a href="{{.PersonalInfo.GitHub}}">GitHub</a></li>{{end}}
  </ul>
  {{if .Skills}}<div class="skills">
    <h2>Skills</h2>
    {{range .Skills}}<p><strong>{{.Category}}</strong><br>{{join .Items " / "}}</p>{{end}}
  </div>{{end}}
  {{if .Languages}}<div class="languages">
    <h2>Languages</h2>
    {{range .Languages}}<p>{{.Name}}{{if .Fluency}} · {{.Fluency}}{{end}}</p>{{end}}
  </div>{{end}}
</aside>
<div class="body">
  {{if .PersonalInfo.Summary}}<section><h2>About</h2><p>{{.PersonalInfo.Summary}}</p></section>{{end}}
  {{if .Experience}}<section>
    <h2>Experience</h2>
    {{range .Experience}}<article>
      <h3>{{.Position}}</h3>
      <p class="meta">{{.Company}} · {{.StartDate}}{{if .EndDate}} – {{.EndDate}}{{end}}</p>
      {{if .Highlights}}<ul>{{range .Highlights}}<li>{{.}}</li>{{end}}</ul>{{end}}
    </article>{{end}}
  </section>{{end}}
  {{if .Projects}}<section>
    <h2>Projects</h2>
    {{range .Projects}}<article><h3>{{.Name}}</h3>{{if .Description}}<p>{{.Description}}</p>{{end}}</article>{{end}}
  </section>{{end}}
  {{if .Education}}<section>
    <h2>Education</h2>
    {{range .Education}}<p><strong>{{.Institution}}</strong>{{if .Degree}} — {{.Degree}}{{end}}</p>{{end}}
  </section>{{end}}
  {{if .Volunteer}}<section>
    <h2>Volunteering</h2>
    {{range .Volunteer}}<p>{{.Organization}}{{if .Role}} — {{.Role}}{{end}}</p>{{end}}
  </section>{{end}}
  {{if .Awards}}<section>
    <h2>Awards</h2>
    <ul>{{range .Awards}}<li>{{.Title}}</li>{{end}}</ul>
  </section>{{end}}
</div>
</main>`

const creativeCSS = `
body { font-family: 'Segoe UI', sans-serif; margin: 0; color: {primary}; }
.cv.creative { display: flex; min-height: 100vh; }
.cv.creative aside { width: 220px; background: {primary}; color: #fff; padding: 40px 24px; }
.cv.creative aside h1 { font-size: 20pt; margin-top: 0; }
.cv.creative aside h2 { font-size: 11pt; color: {accent}; text-transform: uppercase; }
.cv.creative aside a { color: {accent}; text-decoration: none; }
.cv.creative aside .contact { list-style: none; padding: 0; font-size: 9pt; }
.cv.creative .body { flex: 1; padding: 40px 32px; }
.cv.creative .body h2 { color: {accent}; font-size: 13pt; }
.cv.creative .body h3 { margin: 8px 0 0; }
.cv.creative .meta { color: {secondary}; font-size: 9pt; margin: 0 0 4px; }
@page { size: A4; margin: 0; }
`

const minimalSource = `<main class="cv minimal">
<h1>{{.PersonalInfo.FullName}}</h1>
<p class="contact">{{.PersonalInfo.Email}}{{if .PersonalInfo.Phone}} · {{.PersonalInfo.Phone}}{{end}}{{if .PersonalInfo.Location}} · {{.PersonalInfo.Location}}{{end}}</p>
{{if .PersonalInfo.Summary}}<p>{{.PersonalInfo.Summary}}</p>{{end}}
{{if .Experience}}<h2>Experience</h2>
{{range .Experience}}<p><strong>{{.Position}}</strong>, {{.Company}} ({{.StartDate}}{{if .EndDate}} – {{.EndDate}}{{end}})</p>
{{if .Highlights}}<ul>{{range .Highlights}}<li>{{.}}</li>{{end}}</ul>{{end}}{{end}}{{end}}
{{if .Education}}<h2>Education</h2>
{{range .Education}}<p>{{.Institution}}{{if .Degree}} — {{.Degree}}{{end}}</p>{{end}}{{end}}
{{if .Skills}}<h2>Skills</h2>
{{range .Skills}}<p>{{.Category}}: {{join .Items ", "}}</p>{{end}}{{end}}
{{if .Certifications}}<h2>Certifications</h2>
<ul>{{range .Certifications}}<li>{{.Name}}</li>{{end}}</ul>{{end}}
</main>`

const minimalCSS = `
body { font-family: 'Helvetica Neue', sans-serif; color: {primary}; margin: 0; }
.cv.minimal { max-width: 680px; margin: 0 auto; padding: 64px 40px; line-height: 1.5; }
.cv.minimal h1 { font-size: 22pt; font-weight: 500; margin-bottom: 2px; }
.cv.minimal h2 { font-size: 11pt; text-transform: uppercase; letter-spacing: 3px;
  color: {secondary}; margin-top: 24px; }
.cv.minimal .contact { color: {secondary}; font-size: 9pt; }
.cv.minimal ul { margin: 2px 0; padding-left: 18px; }
@page { size: A4; margin: 0; }
`

var allTemplateSections = []string{
	"personalInfo", "experience", "education", "skills", "projects",
	"certifications", "languages", "volunteer", "publications", "awards",
}

type builtinSpec struct {
	meta   Metadata
	source string
	css    string
}

func builtinTemplates() []builtinSpec {
	return []builtinSpec{
		{
			meta: Metadata{
				ID:           "modern",
				Name:         "Modern",
				Description:  "Single-column layout with accent headings",
				Category:     CategoryModern,
				OutputFormat: OutputHTML,
				Sections:     allTemplateSections,
			},
			source: modernSource,
			css:    modernCSS,
		},
		{
			meta: Metadata{
				ID:           "classic",
				Name:         "Classic",
				Description:  "Traditional serif resume",
				Category:     CategoryClassic,
				OutputFormat: OutputHTML,
				Sections: []string{
					"personalInfo", "experience", "education", "skills",
					"certifications", "languages", "publications", "awards",
				},
			},
			source: classicSource,
			css:    classicCSS,
		},
		{
			meta: Metadata{
				ID:           "creative",
				Name:         "Creative",
				Description:  "Two-column layout with colored sidebar",
				Category:     CategoryCreative,
				OutputFormat: OutputHTML,
				Sections: []string{
					"personalInfo", "experience", "education", "skills",
					"projects", "languages", "volunteer", "awards",
				},
			},
			source: creativeSource,
			css:    creativeCSS,
		},
		{
			meta: Metadata{
				ID:           "minimal",
				Name:         "Minimal",
				Description:  "Plain typographic resume without ornament",
				Category:     CategoryMinimal,
				OutputFormat: OutputHTML,
				Sections: []string{
					"personalInfo", "experience", "education", "skills", "certifications",
				},
			},
			source: minimalSource,
			css:    minimalCSS,
		},
	}
}
