package handler

import "net/http"

// IndexHandler serves the workbench page
func IndexHandler(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, workbenchPage)
}

const workbenchPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AI Agent Document Processing</title>
<style>
body{margin:0;font-family:system-ui,sans-serif;height:100vh;display:flex;flex-direction:column;}
header{padding:24px 32px;border-bottom:1px solid #eee;text-align:center;}
h1{margin:0;color:#0f766e;font-size:28px;}
main{flex:1;display:grid;grid-template-columns:1fr 1fr;gap:32px;padding:32px;min-height:0;}
.col{display:flex;flex-direction:column;gap:24px;min-height:0;}
.card{border:1px solid #eee;border-radius:8px;padding:24px;box-shadow:0 1px 2px rgba(0,0,0,.05);}
.card.grow{flex:1;display:flex;flex-direction:column;min-height:0;}
label,.label{color:#0f766e;font-weight:600;font-size:18px;display:block;margin-bottom:12px;}
.row{display:flex;gap:12px;}
button{padding:8px 24px;border:0;border-radius:6px;color:#fff;font-weight:500;cursor:pointer;}
button:disabled{background:#9ca3af !important;cursor:not-allowed;}
.green{background:#16a34a;}.teal{background:#0f766e;}
.wide{flex:1;padding:12px 24px;}
.frame{width:100%;height:70vh;border:0;}
.frame.full{flex:1;height:auto;}
.empty{height:70vh;display:flex;align-items:center;justify-content:center;color:#6b7280;font-size:18px;}
.error{color:#dc2626;font-size:14px;margin-bottom:12px;}
[hidden]{display:none !important;}
</style>
</head>
<body>
<header><h1>AI Agent Document Processing</h1></header>
<main>
<div class="col">
  <div class="card">
    <label for="file">Upload Customer Form</label>
    <form id="upload" class="row">
      <input type="file" id="file" name="file" style="flex:1">
      <button type="button" id="process" class="green" disabled>Process Form</button>
      <button type="button" id="reset" class="teal">Reset</button>
    </form>
  </div>
  <div class="card">
    <span class="label">Auto-fill Form</span>
    <div id="extract-error" class="error" hidden></div>
    <div id="autofill-busy" class="empty" hidden>Processing...</div>
    <iframe id="autofill" class="frame" title="Generated HTML" hidden></iframe>
    <div id="autofill-empty" class="empty">Auto-fill form will appear here after processing</div>
  </div>
  <div class="row">
    <button type="button" id="dl-interactive" class="teal wide" disabled>Download Interactive Form</button>
    <button type="button" id="dl-raw" class="green wide" disabled>Download Raw Form</button>
  </div>
</div>
<div class="col">
  <div class="card grow">
    <span class="label">File Preview</span>
    <iframe id="preview" class="frame full" title="Form Preview" hidden></iframe>
    <div id="preview-empty" class="empty">Upload a file to preview it here</div>
  </div>
</div>
</main>
<script>
(function(){
  var api='/api/v1/session';
  var $=function(id){return document.getElementById(id);};
  var labels={interactive:['Download Interactive Form','Preparing Interactive PDF...'],raw:['Download Raw Form','Preparing Raw PDF...']};
  var view=null;

  function render(v){
    view=v;
    var busy=v.extracting;
    $('process').disabled=!v.file||busy;
    $('process').textContent=busy?'Processing...':'Process Form';
    $('extract-error').hidden=!v.error;
    $('extract-error').textContent=v.error||'';
    $('autofill-busy').hidden=!busy;
    $('autofill').hidden=busy||!v.has_auto_fill;
    $('autofill-empty').hidden=busy||v.has_auto_fill;
    $('preview').hidden=!v.preview;
    $('preview-empty').hidden=!!v.preview;
    [['interactive','dl-interactive',v.downloading_interactive],['raw','dl-raw',v.downloading_raw]].forEach(function(b){
      $(b[1]).disabled=!v.has_auto_fill||b[2];
      $(b[1]).textContent=labels[b[0]][b[2]?1:0];
    });
  }

  function refresh(){
    return fetch(api,{credentials:'same-origin'}).then(function(r){return r.json();}).then(render);
  }

  function reloadFrame(id,src){
    $(id).src=src+'?v='+Date.now();
  }

  $('file').addEventListener('change',function(e){
    var f=e.target.files[0];
    if(!f){return;}
    var data=new FormData();
    data.append('file',f,f.name);
    fetch(api+'/file',{method:'POST',credentials:'same-origin',body:data})
      .then(function(r){return r.json().then(function(b){if(!r.ok){throw new Error(b.error);}return b;});})
      .then(function(v){render(v);reloadFrame('preview',api+'/preview');})
      .catch(function(err){console.error(err);alert(err.message);});
  });

  $('process').addEventListener('click',function(){
    if(!view||!view.file){return;}
    render(Object.assign({},view,{extracting:true,error:''}));
    fetch(api+'/extract',{method:'POST',credentials:'same-origin'})
      .then(function(r){return r.json();})
      .then(function(){return refresh();})
      .then(function(){if(view.has_auto_fill){reloadFrame('autofill',api+'/autofill');}})
      .catch(function(err){console.error(err);refresh();});
  });

  $('reset').addEventListener('click',function(){
    fetch(api+'/reset',{method:'POST',credentials:'same-origin'})
      .then(function(r){return r.json();})
      .then(function(v){
        $('upload').reset();
        $('preview').removeAttribute('src');
        $('autofill').removeAttribute('src');
        render(v);
      });
  });

  function saveName(header){
    var m=/filename\*=UTF-8''([^;]+)|filename="?([^";]+)"?/i.exec(header||'');
    if(!m){return 'filled_form_'+new Date().toISOString().slice(0,10)+'.pdf';}
    var raw=m[1]||m[2];
    try{return decodeURIComponent(raw);}catch(e){return raw;}
  }

  function download(kind){
    if(!view||!view.has_auto_fill){alert('Please process a form first to generate the filled HTML.');return;}
    var frame=$('autofill').contentWindow;
    var flush=(frame&&frame.__autofillFlush)?frame.__autofillFlush():Promise.resolve();
    var patch={};patch['downloading_'+kind]=true;
    render(Object.assign({},view,patch));
    flush.then(function(){
      return fetch(api+'/download/'+kind,{method:'POST',credentials:'same-origin'});
    }).then(function(r){
      if(!r.ok){throw new Error('status '+r.status);}
      var name=saveName(r.headers.get('Content-Disposition'));
      return r.blob().then(function(b){
        var url=URL.createObjectURL(b);
        var a=document.createElement('a');
        a.href=url;a.download=name;
        document.body.appendChild(a);a.click();a.remove();
        URL.revokeObjectURL(url);
      });
    }).catch(function(err){
      console.error(err);
      alert('Failed to download PDF. Please try again.');
    }).then(refresh);
  }

  $('dl-interactive').addEventListener('click',function(){download('interactive');});
  $('dl-raw').addEventListener('click',function(){download('raw');});

  refresh().then(function(){
    if(view.preview){reloadFrame('preview',api+'/preview');}
    if(view.has_auto_fill){reloadFrame('autofill',api+'/autofill');}
  });
})();
</script>
</body>
</html>
`
